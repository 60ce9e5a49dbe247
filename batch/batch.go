// Package batch runs outline extraction over many PDF files with a bounded
// worker pool. A failing document is recorded and the batch moves on.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tsawler/outliner"
	"github.com/tsawler/outliner/classifier"
	"github.com/tsawler/outliner/export"
	"github.com/tsawler/outliner/format"
	"github.com/tsawler/outliner/index"
	"github.com/tsawler/outliner/language"
	"github.com/tsawler/outliner/ledger"
	"github.com/tsawler/outliner/model"
)

// DocumentError is the failure of one document in a batch
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Options configures a Runner. Ledger, Index and Language are optional.
type Options struct {
	OutputDir string
	Workers   int

	Config     outliner.Config
	Classifier classifier.Classifier
	ModelPath  string
	Exporter   *export.Exporter

	OCR               bool
	OCRLanguage       string
	TitleFromMetadata bool
	MaxFileSize       int64

	Ledger   *ledger.Ledger
	Index    *index.Index
	Language *language.Detector

	Logger *slog.Logger
}

// DocumentResult is the outcome of one document
type DocumentResult struct {
	Path       string
	OutputPath string
	Status     ledger.Status
	Outline    *model.Outline
	Warnings   []outliner.Warning
	Language   string
	PageCount  int
	Bytes      int64
	Duration   time.Duration
	Err        error
}

// Summary is the outcome of a batch
type Summary struct {
	RunID    string
	Results  []DocumentResult
	OK       int
	Empty    int
	Failed   int
	Bytes    int64
	Duration time.Duration
}

// Errors returns the failures of the batch
func (s *Summary) Errors() []error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// String returns a one-line human-readable summary
func (s *Summary) String() string {
	return fmt.Sprintf("%s %s processed (%d ok, %d empty, %d failed), %s written in %s",
		humanize.Comma(int64(len(s.Results))), plural(len(s.Results), "document", "documents"),
		s.OK, s.Empty, s.Failed, humanize.Bytes(uint64(s.Bytes)), s.Duration.Round(time.Millisecond))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Runner processes documents
type Runner struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Runner. Workers below 1 are treated as 1 and a nil Exporter
// as the default JSON exporter.
func New(opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Exporter == nil {
		opts.Exporter = export.NewExporter()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{opts: opts, logger: opts.Logger}
}

// Collect expands inputs into a sorted list of PDF files. Directories are
// walked recursively and only files with a .pdf extension are taken from
// them; files named directly are kept as given.
func Collect(inputs []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input, err)
		}
		if !info.IsDir() {
			add(input)
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && format.Detect(path) == format.PDF {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", input, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Run collects the inputs and processes every document. The returned error
// is non-nil only when the batch could not run at all or ctx was cancelled;
// per-document failures are in the summary.
func (r *Runner) Run(ctx context.Context, inputs []string) (*Summary, error) {
	start := time.Now()

	files, err := Collect(inputs)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	summary := &Summary{Results: make([]DocumentResult, len(files))}

	if r.opts.Ledger != nil {
		run, err := r.opts.Ledger.StartRun(ctx, r.opts.ModelPath, r.opts.Workers)
		if err != nil {
			return nil, err
		}
		summary.RunID = run.ID
	}

	r.logger.Info("starting batch", "documents", len(files), "workers", r.opts.Workers, "run_id", summary.RunID)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range r.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result := r.Process(ctx, files[i])
				r.record(ctx, summary.RunID, result)
				summary.Results[i] = result
			}
		}()
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if r.opts.Ledger != nil {
		// The run is closed even when cancelled so it does not stay open forever.
		if err := r.opts.Ledger.FinishRun(context.WithoutCancel(ctx), summary.RunID); err != nil {
			r.logger.Warn("failed to finish run", "run_id", summary.RunID, "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	for _, res := range summary.Results {
		switch res.Status {
		case ledger.StatusOK:
			summary.OK++
		case ledger.StatusEmpty:
			summary.Empty++
		case ledger.StatusFailed:
			summary.Failed++
		}
		summary.Bytes += res.Bytes
	}
	summary.Duration = time.Since(start)

	r.logger.Info("batch finished", "ok", summary.OK, "empty", summary.Empty, "failed", summary.Failed,
		"written", humanize.Bytes(uint64(summary.Bytes)), "duration", summary.Duration)
	return summary, nil
}

// Process extracts and writes the outline of one document. A panic while
// processing is recovered into a DocumentError.
func (r *Runner) Process(ctx context.Context, path string) (result DocumentResult) {
	start := time.Now()
	result = DocumentResult{Path: path}
	logger := r.logger.With("file", path)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic while processing document", "panic", p, "stack", string(debug.Stack()))
			result.Status = ledger.StatusFailed
			result.Err = &DocumentError{Path: path, Err: fmt.Errorf("panic: %v", p)}
		}
		result.Duration = time.Since(start)
	}()

	ext := r.extractor(path, logger)
	defer ext.Close()

	pageCount, err := ext.PageCount()
	if err != nil {
		return r.fail(logger, result, err)
	}
	result.PageCount = pageCount

	run, err := ext.Run(ctx)
	if err != nil {
		if errors.Is(err, outliner.ErrEmptyDocument) {
			logger.Info("document has no text, skipping")
			result.Status = ledger.StatusEmpty
			if run != nil {
				result.Warnings = run.Warnings
			}
			return result
		}
		return r.fail(logger, result, err)
	}

	result.Outline = run.Outline
	result.Warnings = run.Warnings
	if r.opts.Language != nil {
		result.Language = r.opts.Language.DetectLines(run.Lines)
	}

	result.OutputPath = r.opts.Exporter.OutputPath(r.opts.OutputDir, path)
	if err := r.opts.Exporter.ExportToFile(run.Outline, result.OutputPath); err != nil {
		result.OutputPath = ""
		return r.fail(logger, result, err)
	}
	if info, err := os.Stat(result.OutputPath); err == nil {
		result.Bytes = info.Size()
	}

	result.Status = ledger.StatusOK
	logger.Info("outline written", "output", result.OutputPath, "headings", run.Outline.HeadingCount(),
		"warnings", len(run.Warnings), "language", result.Language)
	return result
}

func (r *Runner) extractor(path string, logger *slog.Logger) *outliner.Extractor {
	ext := outliner.Open(path).
		WithConfig(r.opts.Config).
		WithClassifier(r.opts.Classifier).
		WithLogger(logger).
		MaxFileSize(r.opts.MaxFileSize)
	if r.opts.OCR {
		ext = ext.WithOCR(r.opts.OCRLanguage)
	}
	if r.opts.TitleFromMetadata {
		ext = ext.TitleFromMetadata()
	}
	return ext
}

func (r *Runner) fail(logger *slog.Logger, result DocumentResult, err error) DocumentResult {
	logger.Error("failed to process document", "error", err)
	result.Status = ledger.StatusFailed
	result.Err = &DocumentError{Path: result.Path, Err: err}
	return result
}

// record stores a result in the ledger and the index when configured.
// Failures here are logged and do not change the document's status.
func (r *Runner) record(ctx context.Context, runID string, result DocumentResult) {
	if r.opts.Ledger != nil {
		doc := ledger.Document{
			RunID:        runID,
			Path:         result.Path,
			OutputPath:   result.OutputPath,
			Status:       result.Status,
			Language:     result.Language,
			PageCount:    result.PageCount,
			WarningCount: len(result.Warnings),
			Duration:     result.Duration,
		}
		if result.Err != nil {
			doc.Error = result.Err.Error()
		}
		if result.Outline != nil {
			doc.Title = result.Outline.Title
			doc.Headings = result.Outline.Headings
		}
		if _, err := r.opts.Ledger.RecordDocument(context.WithoutCancel(ctx), doc); err != nil {
			r.logger.Warn("failed to record document", "file", result.Path, "error", err)
		}
	}

	if r.opts.Index != nil && result.Status == ledger.StatusOK {
		if err := r.opts.Index.Add(result.Path, result.Outline, result.Language); err != nil {
			r.logger.Warn("failed to index document", "file", result.Path, "error", err)
		}
	}
}
