package match

import (
	"math"
	"strings"
)

// String similarity primitives used by the match strategies. Scores are on
// a 0-100 integer scale so results stay bit-reproducible: 100 means the
// strings (or an aligned window) agree completely.

// Ratio scores two strings by indel edit distance:
//
//	ratio = round(100 * (len(a)+len(b) - dist) / (len(a)+len(b)))
//
// where dist counts insertions and deletions only (a substitution costs 2).
// Two empty strings score 100.
func Ratio(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	lensum := len(ra) + len(rb)
	if lensum == 0 {
		return 100
	}
	d := indelDistance(ra, rb)
	return int(math.Round(float64(100*(lensum-d)) / float64(lensum)))
}

// PartialRatio slides the shorter string across same-length windows of the
// longer and returns the best Ratio. Exact substring containment therefore
// scores 100. An empty string against a non-empty one scores 0.
func PartialRatio(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}
	best := 0
	for i := 0; i+len(ra) <= len(rb); i++ {
		lensum := 2 * len(ra)
		d := indelDistance(ra, rb[i:i+len(ra)])
		score := int(math.Round(float64(100*(lensum-d)) / float64(lensum)))
		if score > best {
			best = score
		}
		if best == 100 {
			break
		}
	}
	return best
}

// NameConfidence scores an extracted name against a catalog value on [0,1].
// Exact match 1.0, substring containment either direction 0.9, otherwise
// the Ratio similarity scaled down. Empty input yields 0 without touching
// the edit-distance path.
func NameConfidence(extracted, catalogValue string) float64 {
	if extracted == "" || catalogValue == "" {
		return 0.0
	}
	le := strings.ToLower(extracted)
	lc := strings.ToLower(catalogValue)
	if le == lc {
		return 1.0
	}
	if strings.Contains(lc, le) || strings.Contains(le, lc) {
		return 0.9
	}
	return float64(Ratio(le, lc)) / 100
}

// indelDistance is the edit distance with substitutions forbidden (cost 2),
// computed with the two-row dynamic program.
func indelDistance(r1, r2 []rune) int {
	m := len(r1)
	n := len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1)
		}
		prev, curr = curr, prev
	}
	return prev[n]
}
