package layout

import (
	"sort"

	"github.com/tsawler/outliner/model"
)

// FrequencyTable counts how often each finalized line text occurs in one document
type FrequencyTable struct {
	counts map[string]int
}

// NewFrequencyTable counts the texts of the given lines
func NewFrequencyTable(lines []model.Line) *FrequencyTable {
	counts := make(map[string]int, len(lines))
	for _, line := range lines {
		counts[line.Text]++
	}
	return &FrequencyTable{counts: counts}
}

// Count returns the number of lines with exactly this text
func (f *FrequencyTable) Count(text string) int {
	if f == nil {
		return 0
	}
	return f.counts[text]
}

// IsRepeated reports whether text occurs more than threshold times
func (f *FrequencyTable) IsRepeated(text string, threshold int) bool {
	return f.Count(text) > threshold
}

// Annotate sets AppearsOnManyPages on every line whose text is repeated
func (f *FrequencyTable) Annotate(lines []model.Line, threshold int) {
	for i := range lines {
		lines[i].AppearsOnManyPages = f.IsRepeated(lines[i].Text, threshold)
	}
}

// Repeated returns the texts occurring more than threshold times, most frequent first
func (f *FrequencyTable) Repeated(threshold int) []string {
	if f == nil {
		return nil
	}

	var texts []string
	for text, n := range f.counts {
		if n > threshold {
			texts = append(texts, text)
		}
	}

	sort.Slice(texts, func(i, j int) bool {
		ci, cj := f.counts[texts[i]], f.counts[texts[j]]
		if ci != cj {
			return ci > cj
		}
		return texts[i] < texts[j]
	})
	return texts
}

// Len returns the number of distinct texts
func (f *FrequencyTable) Len() int {
	if f == nil {
		return 0
	}
	return len(f.counts)
}
