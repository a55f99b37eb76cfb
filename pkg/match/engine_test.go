package match

import (
	"context"
	"errors"
	"strings"
	"testing"

	"medscan/pkg/ocr"
)

// fakeCatalog is an in-memory Catalog for engine tests.
type fakeCatalog struct {
	entries   []Entry
	searchErr error
	listErr   error
	lookupErr error
}

func (f *fakeCatalog) GetByID(_ context.Context, id uint) (*Entry, error) {
	for i := range f.entries {
		if f.entries[i].ID == id {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) GetByBarcode(_ context.Context, barcode string) (*Entry, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for i := range f.entries {
		if f.entries[i].Barcode == barcode {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) SearchField(_ context.Context, field Field, query string, limit int) ([]Entry, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	low := strings.ToLower(query)
	var out []Entry
	for _, e := range f.entries {
		var value string
		switch field {
		case FieldBrandName:
			value = e.BrandName
		case FieldGenericName:
			value = e.GenericName
		case FieldManufacturer:
			value = e.Manufacturer
		}
		if strings.Contains(strings.ToLower(value), low) {
			out = append(out, e)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListPage(_ context.Context, offset, limit int) ([]Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if offset >= len(f.entries) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(f.entries) {
		end = len(f.entries)
	}
	return f.entries[offset:end], nil
}

func testEntries() []Entry {
	return []Entry{
		{ID: 1, BrandName: "Napa", GenericName: "Paracetamol", Strength: "500mg", Manufacturer: "Beximco Pharma", Barcode: "8901234567"},
		{ID: 2, BrandName: "Napa Extra", GenericName: "Paracetamol + Caffeine", Strength: "500mg", Manufacturer: "Beximco Pharma"},
		{ID: 3, BrandName: "Seclo", GenericName: "Omeprazole", Strength: "20mg", Manufacturer: "Square Pharmaceuticals Ltd", Barcode: "8909999999"},
	}
}

func TestMatchBarcodeStrategy(t *testing.T) {
	engine := NewEngine(&fakeCatalog{entries: testEntries()}, Config{})
	ctx := context.Background()

	t.Run("hit emits fixed confidence", func(t *testing.T) {
		cands := engine.Match(ctx, "", ocr.Fields{Barcode: "8901234567"}, 10)
		if len(cands) != 1 {
			t.Fatalf("candidates = %d, want 1", len(cands))
		}
		c := cands[0]
		if c.EntryID != 1 || c.Confidence != 0.95 || c.Strategy != StrategyBarcode {
			t.Errorf("unexpected candidate %+v", c)
		}
		if c.MatchedText != "8901234567" {
			t.Errorf("MatchedText = %q, want the barcode", c.MatchedText)
		}
	})

	t.Run("miss emits nothing", func(t *testing.T) {
		cands := engine.Match(ctx, "", ocr.Fields{Barcode: "0000000000"}, 10)
		if len(cands) != 0 {
			t.Errorf("candidates = %d, want 0", len(cands))
		}
	})
}

func TestMatchNameStrategies(t *testing.T) {
	engine := NewEngine(&fakeCatalog{entries: testEntries()}, Config{})
	ctx := context.Background()

	t.Run("brand hint above threshold", func(t *testing.T) {
		cands := engine.Match(ctx, "", ocr.Fields{BrandHint: "NAPA"}, 10)
		if len(cands) != 2 {
			t.Fatalf("candidates = %d, want 2 (Napa, Napa Extra)", len(cands))
		}
		if cands[0].EntryID != 1 || cands[0].Confidence != 1.0 {
			t.Errorf("exact brand match = %+v, want id 1 at 1.0", cands[0])
		}
		if cands[1].EntryID != 2 || cands[1].Confidence != 0.9 {
			t.Errorf("containment brand match = %+v, want id 2 at 0.9", cands[1])
		}
	})

	t.Run("generic hint", func(t *testing.T) {
		cands := engine.Match(ctx, "", ocr.Fields{GenericHint: "Omeprazole"}, 10)
		if len(cands) != 1 || cands[0].EntryID != 3 || cands[0].Strategy != StrategyGenericName {
			t.Fatalf("unexpected candidates %+v", cands)
		}
	})

	t.Run("manufacturer score is down-weighted", func(t *testing.T) {
		cands := engine.Match(ctx, "", ocr.Fields{ManufacturerHint: "Beximco Pharma"}, 10)
		if len(cands) == 0 {
			t.Fatal("expected manufacturer candidates")
		}
		for _, c := range cands {
			if c.Strategy != StrategyManufacturer {
				t.Errorf("strategy = %s, want manufacturer", c.Strategy)
			}
			if c.Confidence > 0.8 {
				t.Errorf("confidence = %v, want <= 0.8 after weighting", c.Confidence)
			}
		}
	})
}

func TestMatchFuzzyStrategy(t *testing.T) {
	engine := NewEngine(&fakeCatalog{entries: testEntries()}, Config{})
	ctx := context.Background()

	t.Run("full text overlap", func(t *testing.T) {
		cands := engine.Match(ctx, "napa 500mg tablet beximco pharma", ocr.Fields{}, 10)
		if len(cands) == 0 {
			t.Fatal("expected fuzzy candidates")
		}
		first := cands[0]
		if first.Strategy != StrategyFuzzy || first.EntryID != 1 {
			t.Errorf("unexpected first candidate %+v", first)
		}
		if first.MatchedText != "Napa" {
			t.Errorf("MatchedText = %q, want the best-overlapping field value", first.MatchedText)
		}
	})

	t.Run("empty text skips fuzzy scan", func(t *testing.T) {
		cands := engine.Match(ctx, "", ocr.Fields{}, 10)
		if len(cands) != 0 {
			t.Errorf("candidates = %d, want 0", len(cands))
		}
	})
}

func TestMatchDegradesOnCatalogFailure(t *testing.T) {
	cat := &fakeCatalog{
		entries:   testEntries(),
		searchErr: errors.New("connection refused"),
		listErr:   errors.New("connection refused"),
	}
	engine := NewEngine(cat, Config{})
	fields := ocr.Fields{Barcode: "8901234567", BrandHint: "NAPA", GenericHint: "Paracetamol BP"}

	cands := engine.Match(context.Background(), "napa paracetamol", fields, 10)
	// name and fuzzy strategies fail; the barcode lookup still contributes
	if len(cands) != 1 || cands[0].Strategy != StrategyBarcode {
		t.Fatalf("candidates = %+v, want the lone barcode hit", cands)
	}

	cat.lookupErr = errors.New("connection refused")
	cands = engine.Match(context.Background(), "napa paracetamol", fields, 10)
	if len(cands) != 0 {
		t.Fatalf("candidates = %d, want 0 when every catalog call fails", len(cands))
	}
}

func TestNewEngineAppliesDefaults(t *testing.T) {
	engine := NewEngine(&fakeCatalog{}, Config{})
	cfg := engine.Config()
	if cfg.BrandThreshold != 0.7 || cfg.GenericThreshold != 0.7 {
		t.Errorf("name thresholds = %v/%v, want 0.7/0.7", cfg.BrandThreshold, cfg.GenericThreshold)
	}
	if cfg.ManufacturerThreshold != 0.8 || cfg.ManufacturerWeight != 0.8 {
		t.Errorf("manufacturer config = %v/%v, want 0.8/0.8", cfg.ManufacturerThreshold, cfg.ManufacturerWeight)
	}
	if cfg.FuzzyThreshold != 70 || cfg.FuzzyPageSize != 100 {
		t.Errorf("fuzzy config = %d/%d, want 70/100", cfg.FuzzyThreshold, cfg.FuzzyPageSize)
	}
}
