package heading

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tsawler/outliner/model"
)

var (
	numberedSectionPattern = regexp.MustCompile(`^\p{Nd}+(\.\p{Nd}+)*\s`)
	personNamePattern      = regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z][a-z]+$`)
)

// Score scores for empty text and for the individual cues
const (
	scoreEmpty        = -5
	scoreMostlySymbol = -3
	scoreShort        = 1
	scoreUppercase    = 1
	scoreNoPeriod     = 1
	scoreNumbered     = 2
	scorePersonName   = -1

	// maxShortWords is the largest word count that still counts as short
	maxShortWords = 12

	// symbolRatio is the share of symbol runes above which text is mostly symbols
	symbolRatio = 0.6
)

// Score returns a heuristic heading score for text. Higher is more
// heading-like. Leading and trailing whitespace is ignored.
func Score(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return scoreEmpty
	}

	score := 0

	if float64(countSymbols(text)) > float64(utf8.RuneCountInString(text))*symbolRatio {
		score += scoreMostlySymbol
	}
	if model.WordCount(text) <= maxShortWords {
		score += scoreShort
	}
	if model.IsUpper(text) {
		score += scoreUppercase
	}
	if !strings.HasSuffix(text, ".") {
		score += scoreNoPeriod
	}
	if numberedSectionPattern.MatchString(text) {
		score += scoreNumbered
	}
	if personNamePattern.MatchString(text) {
		score += scorePersonName
	}

	return score
}

// countSymbols counts runes that are neither word characters nor whitespace
func countSymbols(s string) int {
	n := 0
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			continue
		}
		n++
	}
	return n
}
