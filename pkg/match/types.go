package match

import "context"

// Strategy tags the matching algorithm that produced a candidate.
type Strategy string

const (
	StrategyBarcode      Strategy = "barcode"
	StrategyBrandName    Strategy = "brand_name"
	StrategyGenericName  Strategy = "generic_name"
	StrategyManufacturer Strategy = "manufacturer"
	StrategyFuzzy        Strategy = "fuzzy"
)

// priority orders strategies for tie-breaking; lower is stronger.
func (s Strategy) priority() int {
	switch s {
	case StrategyBarcode:
		return 0
	case StrategyBrandName:
		return 1
	case StrategyGenericName:
		return 2
	case StrategyManufacturer:
		return 3
	case StrategyFuzzy:
		return 4
	}
	return 5
}

// Field names a searchable catalog column.
type Field string

const (
	FieldBrandName    Field = "brand_name"
	FieldGenericName  Field = "generic_name"
	FieldManufacturer Field = "manufacturer"
)

// Entry is a read-only snapshot of one catalog record, the subset the
// match strategies need.
type Entry struct {
	ID           uint
	BrandName    string
	GenericName  string
	Strength     string
	Manufacturer string
	Barcode      string
}

// Catalog is the read-only lookup surface the engine matches against.
// Implementations must be safe for concurrent use; the engine never writes.
type Catalog interface {
	GetByID(ctx context.Context, id uint) (*Entry, error)
	// GetByBarcode returns (nil, nil) when no entry carries the barcode.
	GetByBarcode(ctx context.Context, barcode string) (*Entry, error)
	// SearchField does a case-insensitive substring search over one field.
	SearchField(ctx context.Context, field Field, query string, limit int) ([]Entry, error)
	ListPage(ctx context.Context, offset, limit int) ([]Entry, error)
}

// Candidate is one strategy's scored vote for a catalog entry. Several
// candidates may reference the same entry before aggregation.
type Candidate struct {
	EntryID     uint     `json:"entry_id"`
	Confidence  float64  `json:"confidence_score"`
	MatchedText string   `json:"matched_text"`
	Strategy    Strategy `json:"strategy"`
}

// RankedResult is a deduplicated, ranked candidate: at most one per entry.
type RankedResult struct {
	EntryID     uint     `json:"entry_id"`
	Confidence  float64  `json:"confidence_score"`
	MatchedText string   `json:"matched_text"`
	Strategy    Strategy `json:"strategy"`
}
