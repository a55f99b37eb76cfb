package match

import (
	"context"
	"log"
	"strings"

	"medscan/pkg/ocr"
)

// Engine runs the independent match strategies against a catalog. Each
// strategy contributes candidates on its own; a failing catalog call
// empties that strategy's contribution and the rest still run.
type Engine struct {
	catalog Catalog
	cfg     Config
}

// NewEngine wires an engine to a catalog, filling config defaults.
func NewEngine(catalog Catalog, cfg Config) *Engine {
	return &Engine{catalog: catalog, cfg: cfg.withDefaults()}
}

// Config returns the effective (default-filled) configuration.
func (e *Engine) Config() Config { return e.cfg }

// Match runs every applicable strategy and concatenates their candidates
// in strategy order. limit bounds each strategy's catalog search, not the
// combined output; aggregation truncates later.
func (e *Engine) Match(ctx context.Context, text string, fields ocr.Fields, limit int) []Candidate {
	var out []Candidate
	out = append(out, e.matchBarcode(ctx, fields.Barcode)...)
	out = append(out, e.matchName(ctx, StrategyBrandName, FieldBrandName, fields.BrandHint, limit)...)
	out = append(out, e.matchName(ctx, StrategyGenericName, FieldGenericName, fields.GenericHint, limit)...)
	out = append(out, e.matchManufacturer(ctx, fields.ManufacturerHint, limit)...)
	out = append(out, e.matchFuzzy(ctx, text)...)
	return out
}

// Rank is Match followed by aggregation, truncated to limit.
func (e *Engine) Rank(ctx context.Context, text string, fields ocr.Fields, limit int) []RankedResult {
	return Aggregate(e.Match(ctx, text, fields, limit), limit, e.cfg.KeepBest)
}

func (e *Engine) matchBarcode(ctx context.Context, barcode string) []Candidate {
	if barcode == "" {
		return nil
	}
	entry, err := e.catalog.GetByBarcode(ctx, barcode)
	if err != nil {
		log.Printf("match: barcode lookup failed: %v", err)
		return nil
	}
	if entry == nil {
		return nil
	}
	return []Candidate{{
		EntryID:     entry.ID,
		Confidence:  barcodeConfidence,
		MatchedText: barcode,
		Strategy:    StrategyBarcode,
	}}
}

// matchName covers the brand-name and generic-name strategies, which are
// symmetric: substring-search one field, keep entries whose name
// confidence clears the threshold.
func (e *Engine) matchName(ctx context.Context, strategy Strategy, field Field, hint string, limit int) []Candidate {
	if hint == "" {
		return nil
	}
	threshold := e.cfg.BrandThreshold
	if strategy == StrategyGenericName {
		threshold = e.cfg.GenericThreshold
	}
	entries, err := e.catalog.SearchField(ctx, field, hint, limit)
	if err != nil {
		log.Printf("match: %s search failed: %v", strategy, err)
		return nil
	}
	var out []Candidate
	for _, entry := range entries {
		value := entry.BrandName
		if field == FieldGenericName {
			value = entry.GenericName
		}
		score := NameConfidence(hint, value)
		if score <= threshold {
			continue
		}
		out = append(out, Candidate{
			EntryID:     entry.ID,
			Confidence:  clamp01(score),
			MatchedText: value,
			Strategy:    strategy,
		})
	}
	return out
}

func (e *Engine) matchManufacturer(ctx context.Context, hint string, limit int) []Candidate {
	if hint == "" {
		return nil
	}
	entries, err := e.catalog.SearchField(ctx, FieldManufacturer, hint, limit)
	if err != nil {
		log.Printf("match: manufacturer search failed: %v", err)
		return nil
	}
	var out []Candidate
	for _, entry := range entries {
		score := NameConfidence(hint, entry.Manufacturer)
		if score <= e.cfg.ManufacturerThreshold {
			continue
		}
		out = append(out, Candidate{
			EntryID:     entry.ID,
			Confidence:  clamp01(score * e.cfg.ManufacturerWeight),
			MatchedText: entry.Manufacturer,
			Strategy:    StrategyManufacturer,
		})
	}
	return out
}

// matchFuzzy scans one bounded catalog page and scores the whole scan text
// against each entry's brand, generic, and manufacturer fields, keeping
// the field with the strongest partial overlap.
func (e *Engine) matchFuzzy(ctx context.Context, text string) []Candidate {
	if text == "" {
		return nil
	}
	entries, err := e.catalog.ListPage(ctx, 0, e.cfg.FuzzyPageSize)
	if err != nil {
		log.Printf("match: fuzzy page list failed: %v", err)
		return nil
	}
	low := strings.ToLower(text)
	var out []Candidate
	for _, entry := range entries {
		best, matched := bestFieldOverlap(low, entry)
		if best <= e.cfg.FuzzyThreshold {
			continue
		}
		out = append(out, Candidate{
			EntryID:     entry.ID,
			Confidence:  clamp01(float64(best) / 100),
			MatchedText: matched,
			Strategy:    StrategyFuzzy,
		})
	}
	return out
}

// bestFieldOverlap returns the maximum partial-overlap score across the
// three name fields and the field value that achieved it. Ties resolve
// brand over generic over manufacturer.
func bestFieldOverlap(lowText string, entry Entry) (int, string) {
	best := PartialRatio(lowText, strings.ToLower(entry.BrandName))
	matched := entry.BrandName
	if s := PartialRatio(lowText, strings.ToLower(entry.GenericName)); s > best {
		best = s
		matched = entry.GenericName
	}
	if s := PartialRatio(lowText, strings.ToLower(entry.Manufacturer)); s > best {
		best = s
		matched = entry.Manufacturer
	}
	return best, matched
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
