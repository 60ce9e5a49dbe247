package outliner

import (
	"log/slog"

	"github.com/tsawler/outliner/classifier"
)

// ExtractOptions holds configuration for outline extraction.
type ExtractOptions struct {
	// Page selection (1-indexed, nil means all pages)
	pages []int

	// Pipeline stages
	config     Config
	classifier classifier.Classifier
	logger     *slog.Logger

	// OCR fallback for pages without a text layer
	ocr         bool
	ocrLanguage string

	// Preflight
	titleFromMetadata bool
	maxFileSize       int64
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		pages:       nil,
		config:      DefaultConfig(),
		classifier:  nil, // classifier.Null
		logger:      nil, // slog.Default()
		ocr:         false,
		ocrLanguage: "eng",
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := o
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}
	return newOpts
}
