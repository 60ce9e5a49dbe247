// Package normalize cleans raw line text before classification.
//
// Extraction commonly yields text with irregular spacing and with whole words
// emitted twice when a PDF draws the same glyphs more than once (fake bold,
// shadow effects). [Text] repairs both:
//
//	normalize.Text("Proposal   Proposal for  RFP") // "Proposal for RFP"
//
// All functions are pure and idempotent.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Text collapses whitespace and removes immediately repeated words
func Text(s string) string {
	return DedupeRepeatedWords(CollapseWhitespace(s))
}

// CollapseWhitespace trims s and replaces every run of whitespace with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DedupeRepeatedWords removes words that repeat the word immediately before
// them. Words are maximal runs of letters, numbers and underscores; a repeat
// must be separated from the previous word by exactly one space and must end
// at a word boundary. Matching is case-sensitive.
//
//	"Proposal Proposal"  -> "Proposal"
//	"the the the end"    -> "the end"
//	"go go.go"           -> "go.go"
//	"Go go"              -> "Go go"
func DedupeRepeatedWords(s string) string {
	tokens := tokenize(s)
	if len(tokens) < 3 {
		return s
	}

	out := make([]token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		out = append(out, tok)
		if !tok.word {
			continue
		}
		// Swallow " word" pairs that repeat tok
		for i+2 < len(tokens) &&
			tokens[i+1].text == " " &&
			tokens[i+2].word &&
			tokens[i+2].text == tok.text {
			i += 2
		}
	}

	if len(out) == len(tokens) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, tok := range out {
		sb.WriteString(tok.text)
	}
	return sb.String()
}

// token is a maximal run of word or non-word runes
type token struct {
	text string
	word bool
}

func tokenize(s string) []token {
	var tokens []token
	start := 0
	inWord := false
	for i, r := range s {
		w := IsWordRune(r)
		if i == 0 {
			inWord = w
			continue
		}
		if w != inWord {
			tokens = append(tokens, token{text: s[start:i], word: inWord})
			start = i
			inWord = w
		}
	}
	if start < len(s) {
		r, _ := utf8.DecodeRuneInString(s[start:])
		tokens = append(tokens, token{text: s[start:], word: IsWordRune(r)})
	}
	return tokens
}

// IsWordRune reports whether r is a word character: a letter, a number or '_'
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
