// Package heading decides which lines are headings and at what level.
//
// Three pieces cooperate here. A [StyleMapper] looks at the typography of a
// whole document and assigns H1, H2 and H3 to the styles that stand out from
// the body text. [Score] rates a single line's text on simple surface cues.
// [Fuse] combines a classifier prediction with the style level into the final
// label for a line.
package heading

import (
	"sort"

	"github.com/tsawler/outliner/model"
)

// styleLevels are assigned in order to the most prominent heading styles.
// Styles beyond the third are left unmapped.
var styleLevels = []model.Level{model.LevelH1, model.LevelH2, model.LevelH3}

// StyleMapper maps (font size, bold) styles to heading levels
type StyleMapper struct {
	levels map[model.Style]model.Level
	body   model.Style
	counts map[model.Style]int
}

// NewStyleMapper builds the style mapping for the lines of one document.
//
// The body style is the most frequent style; on a tie the style seen first
// wins. Styles larger than the body size, or of the body size and bold, are
// ranked by size and then boldness, and the top three become H1, H2 and H3.
func NewStyleMapper(lines []model.Line) *StyleMapper {
	m := &StyleMapper{
		levels: make(map[model.Style]model.Level),
		counts: make(map[model.Style]int),
	}
	if len(lines) == 0 {
		return m
	}

	var order []model.Style
	for _, line := range lines {
		style := line.Style()
		if _, seen := m.counts[style]; !seen {
			order = append(order, style)
		}
		m.counts[style]++
	}

	m.body = order[0]
	for _, style := range order[1:] {
		if m.counts[style] > m.counts[m.body] {
			m.body = style
		}
	}

	var candidates []model.Style
	for _, style := range order {
		if style.FontSize > m.body.FontSize ||
			(style.FontSize == m.body.FontSize && style.IsBold) {
			candidates = append(candidates, style)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[j].Less(candidates[i])
	})

	for i, style := range candidates {
		if i >= len(styleLevels) {
			break
		}
		m.levels[style] = styleLevels[i]
	}

	return m
}

// Level returns the heading level for a style, or body when the style is unmapped
func (m *StyleMapper) Level(style model.Style) model.Level {
	if m == nil {
		return model.LevelBody
	}
	if level, ok := m.levels[style]; ok {
		return level
	}
	return model.LevelBody
}

// LevelOf returns the heading level for a line's style
func (m *StyleMapper) LevelOf(line model.Line) model.Level {
	return m.Level(line.Style())
}

// BodyStyle returns the most frequent style. ok is false for an empty document.
func (m *StyleMapper) BodyStyle() (style model.Style, ok bool) {
	if m == nil || len(m.counts) == 0 {
		return model.Style{}, false
	}
	return m.body, true
}

// Mapping returns a copy of the style to level mapping
func (m *StyleMapper) Mapping() map[model.Style]model.Level {
	result := make(map[model.Style]model.Level)
	if m == nil {
		return result
	}
	for style, level := range m.levels {
		result[style] = level
	}
	return result
}

// Len returns the number of mapped styles
func (m *StyleMapper) Len() int {
	if m == nil {
		return 0
	}
	return len(m.levels)
}
