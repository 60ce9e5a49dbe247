package model

import (
	"strings"
	"unicode"
)

// Line represents one logical text line built from consecutive spans
type Line struct {
	// Text is the whitespace-collapsed, deduplicated text of the merged spans
	Text string

	FontSize float64
	FontName string
	IsBold   bool

	// X0, Y0 are taken from the first span of the line
	X0, Y0 float64

	// PageNumber is 1-indexed
	PageNumber int

	// TextLength is the word count of Text
	TextLength int

	// IsUppercase is true when Text has cased letters and all of them are upper case
	IsUppercase bool

	// LineIndent is the left indentation of the line (equal to X0)
	LineIndent float64

	// EndsWithPeriod is true when Text ends with "."
	EndsWithPeriod bool

	// AppearsOnManyPages flags text repeated more often than the repeat
	// threshold across the whole document (running headers and footers)
	AppearsOnManyPages bool
}

// Style returns the (font size, bold) pair of the line
func (l Line) Style() Style {
	return Style{FontSize: l.FontSize, IsBold: l.IsBold}
}

// WordCount returns the number of whitespace-separated words in s
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// IsUpper reports whether s contains at least one cased letter and no
// lower or title case letters.
func IsUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// HasLetter reports whether s contains an alphabetic rune
func HasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// HasAlphanumeric reports whether s contains a letter or a number
func HasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
