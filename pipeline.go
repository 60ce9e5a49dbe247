package outliner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tsawler/outliner/classifier"
	"github.com/tsawler/outliner/heading"
	"github.com/tsawler/outliner/layout"
	"github.com/tsawler/outliner/model"
	"github.com/tsawler/outliner/outline"
)

// ErrEmptyDocument is returned when a document yields no text lines at all.
var ErrEmptyDocument = errors.New("document has no text lines")

// Config holds the thresholds of every pipeline stage.
type Config struct {
	Merge   layout.MergeConfig
	Fusion  heading.FusionConfig
	Outline outline.Config
}

// DefaultConfig returns the standard pipeline thresholds.
func DefaultConfig() Config {
	return Config{
		Merge:   layout.DefaultMergeConfig(),
		Fusion:  heading.DefaultFusionConfig(),
		Outline: outline.DefaultConfig(),
	}
}

// Decision records how one line was classified.
type Decision struct {
	Line       model.Line
	Features   []float64
	Prediction classifier.Prediction
	StyleLevel model.Level
	Level      model.Level

	// Skipped is set for lines that never reached fusion; Err says why when
	// the line failed rather than being filtered out.
	Skipped bool
	Err     error
}

// Result is the output of one pipeline run.
type Result struct {
	Outline   *model.Outline
	Lines     []model.Line
	Decisions []Decision
	Warnings  []Warning

	// Repeated holds the line texts flagged as running headers or footers,
	// most frequent first.
	Repeated []string
}

// Pipeline turns the spans of a document into an outline. A Pipeline holds
// no per-document state and may be used from several goroutines as long as
// its classifier is safe for concurrent use.
type Pipeline struct {
	config     Config
	classifier classifier.Classifier
	logger     *slog.Logger
}

// NewPipeline creates a pipeline. A nil classifier is replaced by
// classifier.Null and a nil logger by slog.Default().
func NewPipeline(config Config, c classifier.Classifier, logger *slog.Logger) *Pipeline {
	if c == nil {
		c = classifier.Null{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		config:     config,
		classifier: c,
		logger:     logger,
	}
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Run merges the spans into lines, classifies every candidate line and
// assembles the outline. It returns ErrEmptyDocument when no lines are found.
func (p *Pipeline) Run(ctx context.Context, pages []layout.PageSpans) (*Result, error) {
	lines, freq := layout.NewMergerWithConfig(p.config.Merge).MergeDocument(pages)
	if len(lines) == 0 {
		return nil, ErrEmptyDocument
	}

	result := &Result{
		Lines:     lines,
		Decisions: make([]Decision, 0, len(lines)),
		Repeated:  freq.Repeated(p.config.Merge.RepeatThreshold),
	}
	if len(result.Repeated) > 0 {
		p.logger.Debug("repeated text flagged",
			"texts", len(result.Repeated),
			"distinct", freq.Len(),
			"most_frequent", result.Repeated[0])
	}

	mapper := heading.NewStyleMapper(lines)
	var candidates []model.Heading

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d := p.decide(ctx, mapper, line)
		if d.Err != nil {
			if errors.Is(d.Err, context.Canceled) || errors.Is(d.Err, context.DeadlineExceeded) {
				return nil, d.Err
			}
			result.Warnings = append(result.Warnings, p.warn(line, d.Err))
		}
		result.Decisions = append(result.Decisions, d)

		if d.Skipped {
			continue
		}
		if h, ok := heading.NewHeading(line, d.Level); ok {
			candidates = append(candidates, h)
		}
	}

	result.Outline = outline.NewAssemblerWithConfig(p.config.Outline).Assemble(candidates)

	p.logger.Debug("outline assembled",
		"lines", len(lines),
		"candidates", len(candidates),
		"headings", result.Outline.HeadingCount(),
		"warnings", len(result.Warnings))

	return result, nil
}

// decide classifies a single line
func (p *Pipeline) decide(ctx context.Context, mapper *heading.StyleMapper, line model.Line) Decision {
	d := Decision{
		Line:       line,
		StyleLevel: mapper.LevelOf(line),
		Level:      model.LevelBody,
	}

	if !p.config.Fusion.IsCandidate(line.Text) {
		d.Skipped = true
		return d
	}

	features, err := classifier.Features(line)
	if err != nil {
		d.Skipped = true
		d.Err = err
		return d
	}
	d.Features = features

	pred, err := classifier.Invoke(ctx, p.classifier, features)
	if err != nil {
		d.Skipped = true
		d.Err = err
		return d
	}
	d.Prediction = pred

	d.Level = p.config.Fusion.Fuse(pred.Label, pred.Confidence(), d.StyleLevel)
	return d
}

// warn logs a skipped line and converts the cause into a Warning
func (p *Pipeline) warn(line model.Line, err error) Warning {
	code := WarnClassifier
	if errors.Is(err, classifier.ErrMissingFeature) {
		code = WarnMissingFeature
		p.logger.Debug("line skipped", "page", line.PageNumber, "text", line.Text, "error", err)
	} else {
		p.logger.Warn("classifier failed", "page", line.PageNumber, "text", line.Text, "error", err)
	}

	return Warning{
		Code:    code,
		Message: err.Error(),
		Page:    line.PageNumber,
	}
}
