// Package mcpserver exposes outline extraction and search as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsawler/outliner"
	"github.com/tsawler/outliner/classifier"
	"github.com/tsawler/outliner/index"
	"github.com/tsawler/outliner/model"
)

const serverName = "outliner"

// ErrNoIndex is returned by search_outlines when no index is configured
var ErrNoIndex = errors.New("no outline index configured")

// Options configures the MCP server. Index is optional.
type Options struct {
	Config            outliner.Config
	Classifier        classifier.Classifier
	Index             *index.Index
	TitleFromMetadata bool
	Logger            *slog.Logger
}

// ExtractOutlineInput defines input for the extract_outline tool
type ExtractOutlineInput struct {
	Path string `json:"path" jsonschema:"Path of the PDF file on the server"`
}

// ExtractOutlineOutput defines output for the extract_outline tool
type ExtractOutlineOutput struct {
	Title    string          `json:"title"`
	Outline  []model.Heading `json:"outline"`
	Warnings []string        `json:"warnings,omitempty"`
}

// SearchOutlinesInput defines input for the search_outlines tool
type SearchOutlinesInput struct {
	Query string `json:"query" jsonschema:"Words to look for in document titles and headings"`
	Size  int    `json:"size,omitempty" jsonschema:"Maximum number of documents to return (optional, defaults to 10)"`
}

// SearchOutlinesOutput defines output for the search_outlines tool
type SearchOutlinesOutput struct {
	Query string      `json:"query"`
	Total int         `json:"total"`
	Hits  []index.Hit `json:"hits"`
}

// Server wraps an MCP server with the outliner tools registered
type Server struct {
	opts   Options
	logger *slog.Logger
	mcp    *mcp.Server
}

// New creates the MCP server and registers its tools
func New(opts Options, version string) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    serverName,
				Version: version,
			},
			nil,
		),
	}

	mcp.AddTool(s.mcp,
		&mcp.Tool{
			Name:        "extract_outline",
			Description: "Extract the title and the H1/H2/H3 headings of a PDF file, with the page of each heading.",
		},
		s.ExtractOutline,
	)
	mcp.AddTool(s.mcp,
		&mcp.Tool{
			Name:        "search_outlines",
			Description: "Full-text search over the titles and headings of previously processed PDF files.",
		},
		s.SearchOutlines,
	)

	return s
}

// MCP returns the underlying MCP server
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Run serves over stdin and stdout until the client disconnects or ctx is done
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server ready", "transport", "stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// ExtractOutline handles the extract_outline tool
func (s *Server) ExtractOutline(ctx context.Context, req *mcp.CallToolRequest, input ExtractOutlineInput) (*mcp.CallToolResult, ExtractOutlineOutput, error) {
	if input.Path == "" {
		return nil, ExtractOutlineOutput{}, errors.New("path is required")
	}

	ext := outliner.Open(input.Path).
		WithConfig(s.opts.Config).
		WithClassifier(s.opts.Classifier).
		WithLogger(s.logger)
	if s.opts.TitleFromMetadata {
		ext = ext.TitleFromMetadata()
	}

	result, warnings, err := ext.Outline(ctx)
	if err != nil {
		return nil, ExtractOutlineOutput{}, fmt.Errorf("extracting %s: %w", input.Path, err)
	}

	output := ExtractOutlineOutput{
		Title:   result.Title,
		Outline: result.Headings,
	}
	if output.Outline == nil {
		output.Outline = []model.Heading{}
	}
	for _, w := range warnings {
		output.Warnings = append(output.Warnings, w.String())
	}

	s.logger.Debug("outline extracted", "file", input.Path, "headings", len(output.Outline))
	return nil, output, nil
}

// SearchOutlines handles the search_outlines tool
func (s *Server) SearchOutlines(ctx context.Context, req *mcp.CallToolRequest, input SearchOutlinesInput) (*mcp.CallToolResult, SearchOutlinesOutput, error) {
	if s.opts.Index == nil {
		return nil, SearchOutlinesOutput{}, ErrNoIndex
	}

	results, err := s.opts.Index.Search(ctx, input.Query, input.Size)
	if err != nil {
		return nil, SearchOutlinesOutput{}, err
	}

	return nil, SearchOutlinesOutput{
		Query: results.Query,
		Total: results.Total,
		Hits:  results.Hits,
	}, nil
}
