package layout

import (
	"math"
	"strings"

	"github.com/tsawler/outliner/model"
	"github.com/tsawler/outliner/normalize"
)

// PageSpans holds the spans of a single page in reading order
type PageSpans struct {
	PageNumber int
	Spans      []model.Span
}

// MergeConfig holds configuration for line merging
type MergeConfig struct {
	// FontSizeTolerance is the exclusive upper bound on the font size
	// difference between a span and the line it joins.
	// Default: 1.0
	FontSizeTolerance float64

	// VerticalFactor scales the larger of the two font sizes to give the
	// exclusive upper bound on the vertical center distance.
	// Default: 1.2
	VerticalFactor float64

	// RepeatThreshold is the occurrence count a line text must exceed to be
	// flagged as appearing on many pages.
	// Default: 2
	RepeatThreshold int
}

// DefaultMergeConfig returns the standard merging thresholds
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		FontSizeTolerance: 1.0,
		VerticalFactor:    1.2,
		RepeatThreshold:   2,
	}
}

// Merger consolidates spans into lines
type Merger struct {
	config MergeConfig
}

// NewMerger creates a merger with default configuration
func NewMerger() *Merger {
	return &Merger{
		config: DefaultMergeConfig(),
	}
}

// NewMergerWithConfig creates a merger with custom configuration
func NewMergerWithConfig(config MergeConfig) *Merger {
	return &Merger{
		config: config,
	}
}

// Config returns the merger's configuration
func (m *Merger) Config() MergeConfig {
	return m.config
}

// Merge consolidates the spans of every page into lines and flags text that
// repeats across the document. Pages are processed in the order given.
func (m *Merger) Merge(pages []PageSpans) []model.Line {
	lines, _ := m.MergeDocument(pages)
	return lines
}

// MergeDocument is Merge that also returns the document's frequency table.
func (m *Merger) MergeDocument(pages []PageSpans) ([]model.Line, *FrequencyTable) {
	var lines []model.Line
	for _, page := range pages {
		lines = append(lines, m.MergePage(page.Spans)...)
	}

	freq := NewFrequencyTable(lines)
	freq.Annotate(lines, m.config.RepeatThreshold)

	return lines, freq
}

// MergePage consolidates the spans of a single page. AppearsOnManyPages is
// left unset; it needs the whole document.
func (m *Merger) MergePage(spans []model.Span) []model.Line {
	if len(spans) == 0 {
		return nil
	}

	lines := make([]model.Line, 0, len(spans))

	i := 0
	for i < len(spans) {
		base := spans[i]
		var sb strings.Builder
		sb.WriteString(base.Text)

		j := i + 1
		for j < len(spans) && m.canMerge(base, sb.String(), spans[j]) {
			sb.WriteString(" ")
			sb.WriteString(spans[j].Text)
			j++
		}

		lines = append(lines, finalize(base, sb.String()))
		i = j
	}

	return lines
}

// canMerge reports whether candidate continues the line started by base.
// baseText is the text accumulated so far.
func (m *Merger) canMerge(base model.Span, baseText string, candidate model.Span) bool {
	if candidate.FontName != base.FontName {
		return false
	}
	if math.Abs(candidate.FontSize-base.FontSize) >= m.config.FontSizeTolerance {
		return false
	}

	distance := math.Abs(candidate.VerticalCenter() - base.VerticalCenter())
	limit := math.Max(base.FontSize, candidate.FontSize) * m.config.VerticalFactor
	if distance >= limit {
		return false
	}

	// Text already present in the line ends it; the span starts the next line
	return !strings.Contains(baseText, candidate.Text)
}

// finalize builds a Line from its first span and the merged text
func finalize(base model.Span, text string) model.Line {
	text = normalize.Text(text)

	return model.Line{
		Text:           text,
		FontSize:       base.FontSize,
		FontName:       base.FontName,
		IsBold:         base.IsBold,
		X0:             base.X0,
		Y0:             base.Y0,
		PageNumber:     base.PageNumber,
		TextLength:     model.WordCount(text),
		IsUppercase:    model.IsUpper(text),
		LineIndent:     base.X0,
		EndsWithPeriod: strings.HasSuffix(text, "."),
	}
}
