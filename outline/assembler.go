// Package outline turns classified headings into a document outline.
package outline

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/outliner/model"
)

// Config holds assembly options
type Config struct {
	// MergeDistance is the exclusive upper bound on the vertical distance
	// between two headings of the same level on the same page that are
	// joined into one entry.
	// Default: 10
	MergeDistance float64

	// FallbackTitle is used when no heading is labelled title. Empty by default.
	FallbackTitle string
}

// DefaultConfig returns the standard assembly options
func DefaultConfig() Config {
	return Config{MergeDistance: 10}
}

// Assembler builds an Outline from heading candidates
type Assembler struct {
	config Config
}

// NewAssembler creates an assembler with default configuration
func NewAssembler() *Assembler {
	return &Assembler{config: DefaultConfig()}
}

// NewAssemblerWithConfig creates an assembler with custom configuration
func NewAssemblerWithConfig(config Config) *Assembler {
	return &Assembler{config: config}
}

// Assemble builds the outline. Title candidates are joined into the title
// from the top of the first page down; the remaining headings are ordered by
// page and vertical position, multi-line headings are joined, and entries
// without any letter or digit are dropped. The input slice is not modified.
func (a *Assembler) Assemble(candidates []model.Heading) *model.Outline {
	var titles, headings []model.Heading
	for _, h := range candidates {
		if h.Level == model.LevelTitle {
			titles = append(titles, h)
		} else {
			headings = append(headings, h)
		}
	}

	result := model.NewOutline()
	result.Title = a.title(titles)

	for _, h := range a.Consolidate(headings) {
		h.Text = strings.TrimSpace(h.Text)
		if !model.HasAlphanumeric(h.Text) {
			continue
		}
		result.Headings = append(result.Headings, h)
	}

	return result
}

// title orders title candidates by page ascending and, within a page, by
// descending y, then joins their trimmed texts.
func (a *Assembler) title(titles []model.Heading) string {
	if len(titles) == 0 {
		return strings.TrimSpace(a.config.FallbackTitle)
	}

	sort.SliceStable(titles, func(i, j int) bool {
		if titles[i].Page != titles[j].Page {
			return titles[i].Page < titles[j].Page
		}
		return titles[i].Y > titles[j].Y
	})

	parts := make([]string, len(titles))
	for i, h := range titles {
		parts[i] = strings.TrimSpace(h.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Consolidate sorts headings by page and y and merges each run of headings
// that share the current entry's level and page and lie within MergeDistance
// of its first line. The input slice is not modified.
func (a *Assembler) Consolidate(headings []model.Heading) []model.Heading {
	if len(headings) == 0 {
		return nil
	}

	sorted := make([]model.Heading, len(headings))
	copy(sorted, headings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Page != sorted[j].Page {
			return sorted[i].Page < sorted[j].Page
		}
		return sorted[i].Y < sorted[j].Y
	})

	result := make([]model.Heading, 0, len(sorted))
	current := sorted[0]

	for _, next := range sorted[1:] {
		if next.Level == current.Level &&
			next.Page == current.Page &&
			math.Abs(next.Y-current.Y) < a.config.MergeDistance {
			current.Text += " " + next.Text
			continue
		}
		result = append(result, current)
		current = next
	}

	return append(result, current)
}
