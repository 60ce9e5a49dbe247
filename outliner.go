// Package outliner extracts a structured outline (a title and H1, H2 and H3
// headings) from PDF documents.
//
// Basic usage:
//
//	result, warnings, err := outliner.Open("report.pdf").Outline(ctx)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", outliner.FormatWarnings(warnings))
//	}
//
// With options:
//
//	forest, err := classifier.LoadForest("model.json")
//	// ...
//	result, _, err := outliner.Open("report.pdf").
//	    Pages(1, 2, 3).
//	    WithClassifier(forest).
//	    WithOCR("eng").
//	    Outline(ctx)
//
// The pipeline stages live in their own packages: layout merges spans into
// lines, heading maps styles and fuses labels, classifier predicts labels and
// outline assembles the result.
package outliner

import (
	"github.com/tsawler/outliner/spans"
)

// Open returns an Extractor for the PDF at filename. The file is opened
// lazily by the first terminal operation, which also closes it.
//
// Example:
//
//	result, warnings, err := outliner.Open("document.pdf").Outline(ctx)
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromSource creates an Extractor over an already opened span source.
// The caller is responsible for closing the source.
//
// Example:
//
//	src, err := spans.OpenPDF("document.pdf")
//	// ...
//	defer src.Close()
//	result, _, err := outliner.FromSource(src).Outline(ctx)
func FromSource(src spans.Source) *Extractor {
	return &Extractor{
		source:       src,
		sourceOpened: true,
		options:      defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := outliner.Must(outliner.Open("document.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustOutline wraps a call to Outline() and panics if the error is non-nil.
// It discards warnings and returns just the value.
//
// Example:
//
//	result := outliner.MustOutline(outliner.Open("document.pdf").Outline(ctx))
func MustOutline[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
