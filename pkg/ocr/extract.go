package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

// Fields is the structured interpretation of one scan. Every field is a
// best-effort hint; empty means the heuristic found nothing, which is a
// normal outcome rather than an error.
type Fields struct {
	Barcode          string `json:"barcode,omitempty"`
	Strength         string `json:"strength,omitempty"`
	ManufacturerHint string `json:"manufacturer_hint,omitempty"`
	BrandHint        string `json:"brand_hint,omitempty"`
	GenericHint      string `json:"generic_hint,omitempty"`
}

// Line-shape thresholds for the name heuristics. Coarse by design; tune
// against real packaging text rather than treating them as fixed truths.
const (
	minNameLineLen    = 3
	maxBrandLineLen   = 30
	minGenericHintLen = 10
	maxGenericHintLen = 50
)

var (
	barcodeRE  = regexp.MustCompile(`\b\d{8,13}\b`)
	strengthRE = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:mg|mcg|g|ml|IU)\b`)

	manufacturerTokens = []string{"ltd", "inc", "corp", "pharma", "pharmaceuticals", "company"}
	dosageFormTokens   = []string{"tablet", "capsule", "injection", "mg", "mcg", "ml"}
)

// ExtractFields applies the line-order heuristics to normalized text.
// First qualifying line wins per field; later candidates are ignored.
func ExtractFields(t Text) Fields {
	var f Fields
	for _, line := range t.Lines {
		if f.Barcode == "" {
			if m := barcodeRE.FindString(line); m != "" {
				f.Barcode = m
			}
		}
		if f.Strength == "" {
			if m := strengthRE.FindString(line); m != "" {
				f.Strength = m
			}
		}
		if f.ManufacturerHint == "" && containsAnyToken(line, manufacturerTokens) {
			f.ManufacturerHint = line
		}
	}
	f.BrandHint, f.GenericHint = extractNameHints(t.Lines)
	return f
}

// extractNameHints picks brand and generic name candidates. Lines carrying
// dosage-form tokens are skipped entirely: a line like "PARACETAMOL 500MG
// TABLET" describes the form, not the name. Short all-caps lines read as
// brand names; longer mixed-case lines as generic names.
func extractNameHints(lines []string) (brand, generic string) {
	for _, line := range lines {
		if len(line) < minNameLineLen {
			continue
		}
		if containsAnyToken(line, dosageFormTokens) {
			continue
		}
		if len(line) <= maxBrandLineLen && isUpperLine(line) {
			if brand == "" {
				brand = line
			}
			continue
		}
		if len(line) > minGenericHintLen && len(line) <= maxGenericHintLen {
			if generic == "" {
				generic = line
			}
		}
	}
	return brand, generic
}

func containsAnyToken(line string, tokens []string) bool {
	low := strings.ToLower(line)
	for _, tok := range tokens {
		if strings.Contains(low, tok) {
			return true
		}
	}
	return false
}

// isUpperLine reports whether the line contains at least one letter and no
// lowercase letters.
func isUpperLine(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
