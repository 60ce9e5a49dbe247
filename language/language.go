// Package language detects the natural language of a document from its
// body text.
package language

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"

	"github.com/tsawler/outliner/model"
)

// DefaultLanguages is the candidate set used when none is given. Each extra
// language adds a model to memory.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
}

const (
	// minSampleRunes is the shortest sample worth detecting
	minSampleRunes = 20
	// maxSampleRunes bounds the text handed to the detector
	maxSampleRunes = 4000
)

// Detector wraps a lingua detector over a fixed language set
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector for the given languages, or DefaultLanguages
// when none are given.
func NewDetector(languages ...lingua.Language) *Detector {
	if len(languages) < 2 {
		languages = DefaultLanguages
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			WithMinimumRelativeDistance(0.1).
			Build(),
	}
}

var (
	defaultOnce     sync.Once
	defaultDetector *Detector
)

// Default returns a shared detector over DefaultLanguages
func Default() *Detector {
	defaultOnce.Do(func() {
		defaultDetector = NewDetector()
	})
	return defaultDetector
}

// Detect returns the ISO 639-1 code of text in lower case. ok is false when
// the text is too short or no language is reliably ahead.
func (d *Detector) Detect(text string) (code string, ok bool) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minSampleRunes {
		return "", false
	}

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// DetectLines detects the language of a document from its lines. Repeated
// running text and heading-like short lines are left out of the sample.
func (d *Detector) DetectLines(lines []model.Line) string {
	code, _ := d.Detect(Sample(lines))
	return code
}

// Sample joins the body-like lines of a document up to a fixed size
func Sample(lines []model.Line) string {
	var sb strings.Builder
	runes := 0
	for _, line := range lines {
		if line.AppearsOnManyPages || line.TextLength < 4 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(line.Text)
		runes += utf8.RuneCountInString(line.Text) + 1
		if runes >= maxSampleRunes {
			break
		}
	}
	return sb.String()
}
