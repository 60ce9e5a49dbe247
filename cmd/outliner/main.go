// Command outliner extracts document outlines from PDF files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "outliner",
		Usage:   "extract titles and headings from PDF files",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level: debug, info, warn or error",
				EnvVars: []string{"OUTLINER_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "log format: text or json",
				EnvVars: []string{"OUTLINER_LOG_FORMAT"},
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only log errors",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "write the outline of each PDF as JSON",
				ArgsUsage: "PATH...",
				Flags: []cli.Flag{
					configFlag(),
					modelFlag(),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "documents processed concurrently"},
					&cli.BoolFlag{Name: "ocr", Usage: "recognize text on pages without a text layer"},
					&cli.StringFlag{Name: "ocr-language", Usage: "Tesseract language for --ocr"},
					&cli.StringFlag{Name: "ledger", Usage: "SQLite file recording runs"},
					&cli.StringFlag{Name: "index", Usage: "search index directory to update"},
					&cli.BoolFlag{Name: "validate", Usage: "validate output against the outline schema"},
					&cli.StringFlag{Name: "format", Usage: "output format: json, jsonl, csv or tsv"},
					&cli.BoolFlag{Name: "title-from-metadata", Usage: "use the PDF Info title when no title line is found"},
				},
				Action: extractAction,
			},
			{
				Name:      "inspect",
				Usage:     "show how every line of a PDF was classified",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					configFlag(),
					modelFlag(),
					&cli.IntSliceFlag{Name: "page", Aliases: []string{"p"}, Usage: "pages to inspect (repeatable)"},
					&cli.IntFlag{Name: "window", Value: 3, Usage: "neighbouring lines compared for distinctness"},
				},
				Action: inspectAction,
			},
			{
				Name:      "search",
				Usage:     "search the outline index",
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "index", Usage: "search index directory", Required: true},
					&cli.IntFlag{Name: "size", Value: 10, Usage: "maximum number of hits"},
				},
				Action: searchAction,
			},
			{
				Name:  "runs",
				Usage: "list recorded runs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ledger", Usage: "SQLite file recording runs", Required: true},
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of runs to show"},
					&cli.StringFlag{Name: "run", Usage: "show the documents of one run"},
				},
				Action: runsAction,
			},
			{
				Name:  "serve",
				Usage: "serve the HTTP API",
				Flags: []cli.Flag{
					configFlag(),
					modelFlag(),
					&cli.StringFlag{Name: "addr", Usage: "listen address"},
					&cli.StringFlag{Name: "index", Usage: "search index directory"},
				},
				Action: serveAction,
			},
			{
				Name:  "mcp",
				Usage: "serve MCP tools over stdio",
				Flags: []cli.Flag{
					configFlag(),
					modelFlag(),
					&cli.StringFlag{Name: "index", Usage: "search index directory"},
				},
				Action: mcpAction,
			},
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML configuration file",
		EnvVars: []string{"OUTLINER_CONFIG"},
	}
}

func modelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "model",
		Aliases: []string{"m"},
		Usage:   "decision forest model (JSON)",
		EnvVars: []string{"OUTLINER_MODEL"},
	}
}
