package match

// Config carries the tunable thresholds for the match strategies. The zero
// value is usable: NewEngine fills in the defaults below.
type Config struct {
	// BrandThreshold is the minimum name confidence for a brand-name match.
	BrandThreshold float64
	// GenericThreshold is the minimum name confidence for a generic-name match.
	GenericThreshold float64
	// ManufacturerThreshold is the minimum name confidence for a
	// manufacturer match; stronger than the name thresholds since
	// manufacturer text is a weaker identity signal.
	ManufacturerThreshold float64
	// ManufacturerWeight scales a passing manufacturer score before emission.
	ManufacturerWeight float64
	// FuzzyThreshold is the minimum partial-overlap similarity (0-100) for
	// the full-text fuzzy strategy.
	FuzzyThreshold int
	// FuzzyPageSize bounds how many catalog entries the fuzzy strategy scans.
	FuzzyPageSize int
	// KeepBest switches aggregation from first-seen-wins deduplication to
	// keeping the highest-confidence candidate per entry.
	KeepBest bool
}

const (
	defaultBrandThreshold        = 0.7
	defaultGenericThreshold      = 0.7
	defaultManufacturerThreshold = 0.8
	defaultManufacturerWeight    = 0.8
	defaultFuzzyThreshold        = 70
	defaultFuzzyPageSize         = 100

	barcodeConfidence = 0.95
)

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		BrandThreshold:        defaultBrandThreshold,
		GenericThreshold:      defaultGenericThreshold,
		ManufacturerThreshold: defaultManufacturerThreshold,
		ManufacturerWeight:    defaultManufacturerWeight,
		FuzzyThreshold:        defaultFuzzyThreshold,
		FuzzyPageSize:         defaultFuzzyPageSize,
	}
}

func (c Config) withDefaults() Config {
	if c.BrandThreshold <= 0 {
		c.BrandThreshold = defaultBrandThreshold
	}
	if c.GenericThreshold <= 0 {
		c.GenericThreshold = defaultGenericThreshold
	}
	if c.ManufacturerThreshold <= 0 {
		c.ManufacturerThreshold = defaultManufacturerThreshold
	}
	if c.ManufacturerWeight <= 0 {
		c.ManufacturerWeight = defaultManufacturerWeight
	}
	if c.FuzzyThreshold <= 0 {
		c.FuzzyThreshold = defaultFuzzyThreshold
	}
	if c.FuzzyPageSize <= 0 {
		c.FuzzyPageSize = defaultFuzzyPageSize
	}
	return c
}
