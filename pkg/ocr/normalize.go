package ocr

import (
	"strings"
	"unicode"
)

// Text is normalized recognizer output. Flat is the whole text with
// whitespace runs collapsed to single spaces; Lines preserves the
// recognizer's line boundaries, each line individually normalized, with
// blank lines dropped.
type Text struct {
	Flat  string
	Lines []string
}

// Normalize cleans raw recognized text: collapses whitespace, trims, and
// strips everything outside the allow-list (letters, digits, spaces,
// hyphen, period, comma, colon, semicolon, parentheses, brackets, braces).
// Total over any input; worst case is an empty Text.
func Normalize(raw string) Text {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		cleaned := normalizeLine(l)
		if cleaned != "" {
			lines = append(lines, cleaned)
		}
	}
	return Text{Flat: strings.Join(lines, " "), Lines: lines}
}

func normalizeLine(l string) string {
	kept := strings.Map(func(r rune) rune {
		if allowedRune(r) {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return -1
	}, l)
	return strings.Join(strings.Fields(kept), " ")
}

func allowedRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
		return true
	}
	switch r {
	case '-', '.', ',', ':', ';', '(', ')', '[', ']', '{', '}':
		return true
	}
	return false
}
