package match

import "sort"

// Aggregate deduplicates candidates by entry id, ranks them, and truncates
// to limit (limit <= 0 keeps everything).
//
// Deduplication default is first-seen-wins in strategy execution order,
// matching the historical behavior even though a later strategy may have
// scored the same entry higher; keepBest opts into max-confidence-wins.
// Ordering is strictly descending by confidence, ties broken by strategy
// priority (barcode strongest) and then ascending entry id, so the same
// candidate set always yields the same ranking.
func Aggregate(candidates []Candidate, limit int, keepBest bool) []RankedResult {
	byEntry := make(map[uint]int, len(candidates))
	var results []RankedResult
	for _, c := range candidates {
		c.Confidence = clamp01(c.Confidence)
		idx, seen := byEntry[c.EntryID]
		if !seen {
			byEntry[c.EntryID] = len(results)
			results = append(results, RankedResult(c))
			continue
		}
		if keepBest && c.Confidence > results[idx].Confidence {
			results[idx] = RankedResult(c)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if pa, pb := a.Strategy.priority(), b.Strategy.priority(); pa != pb {
			return pa < pb
		}
		return a.EntryID < b.EntryID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
