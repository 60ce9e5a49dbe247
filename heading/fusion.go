package heading

import (
	"strings"
	"unicode/utf8"

	"github.com/tsawler/outliner/model"
)

// FusionConfig holds the confidence thresholds used by Fuse
type FusionConfig struct {
	// HighConfidence is the exclusive lower bound above which the classifier
	// label overrides the style level.
	// Default: 0.9
	HighConfidence float64

	// MinConfidence is the exclusive lower bound above which the classifier
	// label is used when the style gives no heading level.
	// Default: 0.6
	MinConfidence float64

	// MinTextLength is the minimum rune length of a candidate's trimmed text.
	// Default: 3
	MinTextLength int
}

// DefaultFusionConfig returns the standard fusion thresholds
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		HighConfidence: 0.9,
		MinConfidence:  0.6,
		MinTextLength:  3,
	}
}

// Fuse returns the final label for a line from the classifier's label and
// confidence and the line's style level. The first matching rule wins:
//
//  1. a classifier "title" is always kept
//  2. a classifier label with confidence above HighConfidence
//  3. a style level of H1, H2 or H3
//  4. a classifier label with confidence above MinConfidence
//  5. body
func (c FusionConfig) Fuse(label model.Level, confidence float64, styleLevel model.Level) model.Level {
	switch {
	case label == model.LevelTitle:
		return model.LevelTitle
	case confidence > c.HighConfidence:
		return label
	case styleLevel.IsStyleLevel():
		return styleLevel
	case confidence > c.MinConfidence:
		return label
	default:
		return model.LevelBody
	}
}

// Fuse applies the default thresholds
func Fuse(label model.Level, confidence float64, styleLevel model.Level) model.Level {
	return DefaultFusionConfig().Fuse(label, confidence, styleLevel)
}

// IsCandidate reports whether text may become a heading: its trimmed form
// must have at least MinTextLength runes and contain a letter.
func (c FusionConfig) IsCandidate(text string) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < c.MinTextLength {
		return false
	}
	return model.HasLetter(text)
}

// IsCandidate applies the default minimum length
func IsCandidate(text string) bool {
	return DefaultFusionConfig().IsCandidate(text)
}

// NewHeading builds a heading from a line and its final label. ok is false
// when the label is discarded.
func NewHeading(line model.Line, level model.Level) (h model.Heading, ok bool) {
	if level.IsDiscarded() {
		return model.Heading{}, false
	}
	return model.Heading{
		Level: level,
		Text:  strings.TrimSpace(line.Text),
		Page:  line.PageNumber,
		Y:     line.Y0,
	}, true
}
