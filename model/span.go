package model

import (
	"math"
	"strings"
)

// Span represents a single run of text with uniform font extracted from a page
type Span struct {
	Text     string
	FontName string
	FontSize float64
	IsBold   bool

	// X0, Y0 is the top-left corner of the span's bounding box
	X0, Y0 float64

	// PageNumber is 1-indexed
	PageNumber int
}

// VerticalCenter returns the vertical midpoint of the span's text
func (s Span) VerticalCenter() float64 {
	return s.Y0 + s.FontSize/2
}

// Style returns the (font size, bold) pair of the span
func (s Span) Style() Style {
	return Style{FontSize: s.FontSize, IsBold: s.IsBold}
}

// IsBoldFont reports whether a font name denotes a bold face
func IsBoldFont(fontName string) bool {
	return strings.Contains(strings.ToLower(fontName), "bold")
}

// RoundFontSize rounds a font size to two decimals, the precision styles are compared at
func RoundFontSize(size float64) float64 {
	return math.Round(size*100) / 100
}

// Style is a (font size, bold) combination observed in a document
type Style struct {
	FontSize float64
	IsBold   bool
}

// Less orders styles ascending by font size, non-bold before bold
func (s Style) Less(other Style) bool {
	if s.FontSize != other.FontSize {
		return s.FontSize < other.FontSize
	}
	return !s.IsBold && other.IsBold
}
