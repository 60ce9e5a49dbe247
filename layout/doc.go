// Package layout consolidates raw text spans into logical lines.
//
// # Line Merging
//
// The [Merger] scans the spans of each page in reading order and folds
// consecutive spans into the current line while they share a font, have
// nearly the same size, sit on roughly the same vertical center, and do not
// repeat text already in the line:
//
//	merger := layout.NewMerger()
//	lines := merger.Merge(pages)
//
// Each finished line is normalized and annotated with derived attributes
// (word count, case, indentation, trailing period).
//
// # Repeated Text
//
// After all pages are merged, a [FrequencyTable] counts every finalized line
// text across the document. Text seen more often than the repeat threshold is
// flagged as appearing on many pages, which catches running headers and
// footers. The table is built per document and never shared.
package layout
