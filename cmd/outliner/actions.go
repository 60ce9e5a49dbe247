package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/tsawler/outliner"
	"github.com/tsawler/outliner/batch"
	"github.com/tsawler/outliner/classifier"
	"github.com/tsawler/outliner/config"
	"github.com/tsawler/outliner/export"
	"github.com/tsawler/outliner/index"
	"github.com/tsawler/outliner/language"
	"github.com/tsawler/outliner/ledger"
	"github.com/tsawler/outliner/mcpserver"
	"github.com/tsawler/outliner/server"
	"github.com/tsawler/outliner/similarity"
)

// loadConfig reads --config when given and applies the flags that were set
// on the command line over the file values.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("model") {
		cfg.Model = c.String("model")
	}
	if c.IsSet("out") {
		cfg.OutputDir = c.String("out")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("ocr") {
		cfg.OCR.Enabled = c.Bool("ocr")
	}
	if c.IsSet("ocr-language") {
		cfg.OCR.Language = c.String("ocr-language")
	}
	if c.IsSet("ledger") {
		cfg.Ledger = c.String("ledger")
	}
	if c.IsSet("index") {
		cfg.Index = c.String("index")
	}
	if c.IsSet("validate") {
		cfg.ValidateOutput = c.Bool("validate")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("title-from-metadata") {
		cfg.Outline.TitleFromMetadata = c.Bool("title-from-metadata")
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}

	return cfg, cfg.Validate()
}

// loadClassifier loads the configured model once. Without a model the
// pipeline falls back to the style heuristics.
func loadClassifier(cfg *config.Config) (classifier.Classifier, error) {
	if cfg.Model == "" {
		return classifier.Null{}, nil
	}
	forest, err := classifier.LoadForest(cfg.Model)
	if err != nil {
		return nil, err
	}
	return forest, nil
}

func extractAction(c *cli.Context) error {
	logger := loggerFrom(c)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	inputs := c.Args().Slice()
	if len(inputs) == 0 {
		inputs = cfg.Input
	}
	if len(inputs) == 0 {
		return errors.New("no input files or directories given")
	}

	model, err := loadClassifier(cfg)
	if err != nil {
		return err
	}

	exportConfig, err := cfg.ExportConfig()
	if err != nil {
		return err
	}

	opts := batch.Options{
		OutputDir:         cfg.OutputDir,
		Workers:           cfg.Workers,
		Config:            cfg.PipelineConfig(),
		Classifier:        model,
		ModelPath:         cfg.Model,
		Exporter:          export.NewExporterWithConfig(exportConfig),
		OCR:               cfg.OCR.Enabled,
		OCRLanguage:       cfg.OCR.Language,
		TitleFromMetadata: cfg.Outline.TitleFromMetadata,
		MaxFileSize:       cfg.MaxFileSize,
		Language:          language.Default(),
		Logger:            logger,
	}

	if cfg.Ledger != "" {
		lg, err := ledger.Open(cfg.Ledger)
		if err != nil {
			return err
		}
		defer lg.Close()
		opts.Ledger = lg
	}
	if cfg.Index != "" {
		idx, err := index.Open(cfg.Index)
		if err != nil {
			return err
		}
		defer idx.Close()
		opts.Index = idx
	}

	summary, err := batch.New(opts).Run(c.Context, inputs)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, summary)
	if summary.RunID != "" {
		fmt.Fprintln(c.App.Writer, "run:", summary.RunID)
	}
	if summary.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d documents failed", summary.Failed, len(summary.Results)), 1)
	}
	return nil
}

func inspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("inspect takes exactly one file")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	model, err := loadClassifier(cfg)
	if err != nil {
		return err
	}

	ext := outliner.Open(c.Args().First()).
		WithConfig(cfg.PipelineConfig()).
		WithClassifier(model).
		WithLogger(loggerFrom(c)).
		Pages(c.IntSlice("page")...)
	if cfg.Outline.TitleFromMetadata {
		ext = ext.TitleFromMetadata()
	}

	result, err := ext.Run(c.Context)
	if err != nil {
		return err
	}

	texts := make([]string, len(result.Decisions))
	for i, d := range result.Decisions {
		texts[i] = d.Line.Text
	}
	distinct := similarity.Scores(texts, c.Int("window"))

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tY\tSIZE\tBOLD\tSCORE\tSTYLE\tPREDICTED\tCONF\tLEVEL\tDISTINCT\tTEXT")
	for i, d := range result.Decisions {
		level := d.Level.String()
		switch {
		case d.Err != nil:
			level = "error"
		case d.Skipped:
			level = "-"
		}

		score := "-"
		if len(d.Features) == classifier.NumFeatures {
			score = fmt.Sprintf("%.0f", d.Features[classifier.NumFeatures-1])
		}

		fmt.Fprintf(tw, "%d\t%.1f\t%.2f\t%t\t%s\t%s\t%s\t%.2f\t%s\t%.4f\t%s\n",
			d.Line.PageNumber, d.Line.Y0, d.Line.FontSize, d.Line.IsBold, score,
			d.StyleLevel, d.Prediction.Label, d.Prediction.Confidence(), level,
			distinct[i], truncate(d.Line.Text, 60))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "\n%d lines, %d headings, title %q\n",
		len(result.Lines), result.Outline.HeadingCount(), result.Outline.Title)
	if len(result.Repeated) > 0 {
		fmt.Fprintf(c.App.Writer, "repeated: %q\n", result.Repeated)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(c.App.Writer, "warnings:", outliner.FormatWarnings(result.Warnings))
	}
	return nil
}

func searchAction(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return errors.New("search needs a query")
	}

	idx, err := index.Open(c.String("index"))
	if err != nil {
		return err
	}
	defer idx.Close()

	results, err := idx.Search(c.Context, query, c.Int("size"))
	if err != nil {
		return err
	}

	if len(results.Hits) == 0 {
		fmt.Fprintln(c.App.Writer, "No matches")
		return nil
	}
	for _, hit := range results.Hits {
		fmt.Fprintf(c.App.Writer, "%.3f  %s", hit.Score, hit.Path)
		if hit.Title != "" {
			fmt.Fprintf(c.App.Writer, "  %q", hit.Title)
		}
		fmt.Fprintln(c.App.Writer)
	}
	fmt.Fprintf(c.App.Writer, "\n%d of %d matches\n", len(results.Hits), results.Total)
	return nil
}

func runsAction(c *cli.Context) error {
	lg, err := ledger.Open(c.String("ledger"))
	if err != nil {
		return err
	}
	defer lg.Close()

	if runID := c.String("run"); runID != "" {
		return printRunDocuments(c, lg, runID)
	}

	runs, err := lg.ListRuns(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "No runs found")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tDOCUMENTS\tFAILED\tWORKERS\tMODEL")
	for _, r := range runs {
		duration := "running"
		if r.Finished() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, humanize.Time(r.StartedAt), duration, r.DocumentCount, r.FailedCount, r.Workers, r.Model)
	}
	return tw.Flush()
}

func printRunDocuments(c *cli.Context, lg *ledger.Ledger, runID string) error {
	if _, err := lg.GetRun(c.Context, runID); err != nil {
		return err
	}
	docs, err := lg.Documents(c.Context, runID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tPAGES\tHEADINGS\tLANG\tPATH\tERROR")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			d.Status, d.PageCount, len(d.Headings), d.Language, d.Path, d.Error)
	}
	return tw.Flush()
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	model, err := loadClassifier(cfg)
	if err != nil {
		return err
	}

	opts := server.Options{
		Config:            cfg.PipelineConfig(),
		Classifier:        model,
		TitleFromMetadata: cfg.Outline.TitleFromMetadata,
		MaxUpload:         cfg.MaxFileSize,
		Logger:            loggerFrom(c),
	}
	if cfg.Index != "" {
		idx, err := index.Open(cfg.Index)
		if err != nil {
			return err
		}
		defer idx.Close()
		opts.Index = idx
	}

	return server.New(opts).ListenAndServe(c.Context, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
}

func mcpAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	model, err := loadClassifier(cfg)
	if err != nil {
		return err
	}

	opts := mcpserver.Options{
		Config:            cfg.PipelineConfig(),
		Classifier:        model,
		TitleFromMetadata: cfg.Outline.TitleFromMetadata,
		Logger:            loggerFrom(c),
	}
	if cfg.Index != "" {
		idx, err := index.Open(cfg.Index)
		if err != nil {
			return err
		}
		defer idx.Close()
		opts.Index = idx
	}

	return mcpserver.New(opts, c.App.Version).Run(c.Context)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
