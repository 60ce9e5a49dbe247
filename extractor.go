package outliner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tsawler/outliner/classifier"
	"github.com/tsawler/outliner/model"
	"github.com/tsawler/outliner/ocr"
	"github.com/tsawler/outliner/preflight"
	"github.com/tsawler/outliner/spans"
)

// Extractor provides a fluent interface for extracting outlines.
// Each configuration method returns a new Extractor instance, allowing
// method chaining without shared mutable state.
type Extractor struct {
	// Source
	filename string

	source    spans.Source
	ocrClient *ocr.Client

	// Lifecycle
	ownsSource   bool // true if we opened the source and should close it
	sourceOpened bool

	// Configuration
	options ExtractOptions

	// Warnings accumulated while opening the source
	warnings []Warning

	info *preflight.Info
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename:     e.filename,
		source:       e.source,
		ocrClient:    e.ocrClient,
		ownsSource:   e.ownsSource,
		sourceOpened: e.sourceOpened,
		options:      e.options.clone(),
		warnings:     append([]Warning(nil), e.warnings...),
		info:         e.info,
	}
}

func (e *Extractor) logger() *slog.Logger {
	if e.options.logger != nil {
		return e.options.logger
	}
	return slog.Default()
}

// ensureSource opens the PDF if not already open.
func (e *Extractor) ensureSource() error {
	if e.sourceOpened {
		return nil
	}
	if e.filename == "" {
		return fmt.Errorf("no filename specified")
	}

	if err := e.preflight(); err != nil {
		return err
	}

	src, err := spans.OpenPDF(e.filename)
	if err != nil {
		return err
	}

	if e.options.ocr {
		client, err := ocr.New()
		if err == nil {
			err = client.SetLanguage(e.options.ocrLanguage)
			if err != nil {
				client.Close()
			}
		}
		if err != nil {
			e.warnings = append(e.warnings, Warning{
				Code:    WarnOCRUnavailable,
				Message: err.Error(),
			})
			e.logger().Warn("OCR unavailable", "file", e.filename, "error", err)
		} else {
			e.ocrClient = client
			src.WithRecognizer(client)
		}
	}

	e.source = src
	e.ownsSource = true
	e.sourceOpened = true
	return nil
}

// preflight validates the file when a size limit or the metadata title is
// requested. Only a missing, oversized or non-PDF file is fatal.
func (e *Extractor) preflight() error {
	if !e.options.titleFromMetadata && e.options.maxFileSize <= 0 {
		return nil
	}

	info, err := preflight.Check(e.filename, e.options.maxFileSize)
	if err != nil {
		if errors.Is(err, preflight.ErrInvalid) {
			e.warnings = append(e.warnings, Warning{Code: WarnMetadata, Message: err.Error()})
			e.logger().Debug("preflight failed", "file", e.filename, "error", err)
			return nil
		}
		return err
	}

	e.info = info
	return nil
}

// Close releases resources associated with the Extractor.
// It is safe to call Close multiple times.
func (e *Extractor) Close() error {
	var err error
	if e.ownsSource && e.source != nil {
		err = e.source.Close()
		e.source = nil
		e.ownsSource = false
		e.sourceOpened = false
	}
	if e.ocrClient != nil {
		e.ocrClient.Close()
		e.ocrClient = nil
	}
	return err
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Pages specifies which pages to extract from (1-indexed).
// Multiple calls are cumulative.
//
// Example:
//
//	result, _, err := outliner.Open("doc.pdf").Pages(1, 3, 5).Outline(ctx)
func (e *Extractor) Pages(pages ...int) *Extractor {
	newExt := e.clone()
	newExt.options.pages = append(newExt.options.pages, pages...)
	return newExt
}

// PageRange specifies a range of pages to extract (1-indexed, inclusive).
func (e *Extractor) PageRange(start, end int) *Extractor {
	newExt := e.clone()
	for i := start; i <= end; i++ {
		newExt.options.pages = append(newExt.options.pages, i)
	}
	return newExt
}

// WithConfig replaces the pipeline thresholds.
func (e *Extractor) WithConfig(config Config) *Extractor {
	newExt := e.clone()
	newExt.options.config = config
	return newExt
}

// WithClassifier sets the line classifier. Without one, classifier.Null is
// used and headings come from the style heuristics alone.
func (e *Extractor) WithClassifier(c classifier.Classifier) *Extractor {
	newExt := e.clone()
	newExt.options.classifier = c
	return newExt
}

// WithLogger sets the logger. The default is slog.Default().
func (e *Extractor) WithLogger(logger *slog.Logger) *Extractor {
	newExt := e.clone()
	newExt.options.logger = logger
	return newExt
}

// WithOCR enables text recognition on pages without a text layer.
// language is a Tesseract language such as "eng" or "eng+fra".
func (e *Extractor) WithOCR(language string) *Extractor {
	newExt := e.clone()
	newExt.options.ocr = true
	if language != "" {
		newExt.options.ocrLanguage = language
	}
	return newExt
}

// TitleFromMetadata uses the document's Info title when no line is
// classified as title.
func (e *Extractor) TitleFromMetadata() *Extractor {
	newExt := e.clone()
	newExt.options.titleFromMetadata = true
	return newExt
}

// MaxFileSize rejects files larger than n bytes. Zero disables the check.
func (e *Extractor) MaxFileSize(n int64) *Extractor {
	newExt := e.clone()
	newExt.options.maxFileSize = n
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Outline extracts the outline of the configured pages.
// This is a terminal operation that closes the underlying file.
//
// Returns ErrEmptyDocument when the pages contain no text lines.
func (e *Extractor) Outline(ctx context.Context) (*model.Outline, []Warning, error) {
	result, err := e.Run(ctx)
	if err != nil {
		if result != nil {
			return nil, result.Warnings, err
		}
		return nil, nil, err
	}
	return result.Outline, result.Warnings, nil
}

// Run executes the full pipeline and returns every intermediate result:
// lines, per-line decisions and warnings.
// This is a terminal operation that closes the underlying file.
func (e *Extractor) Run(ctx context.Context) (*Result, error) {
	if err := e.ensureSource(); err != nil {
		return nil, err
	}
	defer e.Close()

	pageNumbers, err := e.resolvePages()
	if err != nil {
		return nil, err
	}

	pages, err := spans.ReadAll(ctx, e.source, pageNumbers)
	if err != nil {
		return nil, err
	}

	config := e.options.config
	if e.options.titleFromMetadata && e.info != nil {
		config.Outline.FallbackTitle = e.info.Title
	}

	pipeline := NewPipeline(config, e.options.classifier, e.logger())
	result, err := pipeline.Run(ctx, pages)
	if err != nil {
		return &Result{Warnings: e.warnings}, err
	}

	result.Warnings = append(append([]Warning(nil), e.warnings...), result.Warnings...)
	return result, nil
}

// Lines returns the merged lines of the configured pages without
// classifying them.
// This is a terminal operation that closes the underlying file.
func (e *Extractor) Lines(ctx context.Context) ([]model.Line, []Warning, error) {
	result, err := e.Run(ctx)
	if err != nil {
		if result != nil {
			return nil, result.Warnings, err
		}
		return nil, nil, err
	}
	return result.Lines, result.Warnings, nil
}

// PageCount returns the number of pages in the document.
func (e *Extractor) PageCount() (int, error) {
	if err := e.ensureSource(); err != nil {
		return 0, err
	}
	return e.source.PageCount()
}

// Info returns the preflight information of the file. The file is checked
// on demand when no earlier operation did so.
func (e *Extractor) Info() (*preflight.Info, error) {
	if e.info != nil {
		return e.info, nil
	}
	if e.filename == "" {
		return nil, fmt.Errorf("no filename specified")
	}

	info, err := preflight.Check(e.filename, e.options.maxFileSize)
	if err != nil {
		return nil, err
	}
	e.info = info
	return info, nil
}

// resolvePages validates the requested pages against the page count and
// returns them sorted without duplicates. nil means every page.
func (e *Extractor) resolvePages() ([]int, error) {
	if len(e.options.pages) == 0 {
		return nil, nil
	}

	pageCount, err := e.source.PageCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	seen := make(map[int]bool)
	var pageNumbers []int
	for _, p := range e.options.pages {
		if p < 1 || p > pageCount {
			return nil, fmt.Errorf("page %d out of range (1-%d)", p, pageCount)
		}
		if !seen[p] {
			seen[p] = true
			pageNumbers = append(pageNumbers, p)
		}
	}

	sort.Ints(pageNumbers)
	return pageNumbers, nil
}
