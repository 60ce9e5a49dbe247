// Package export writes outlines to files and streams.
package export

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/tsawler/outliner/model"
)

// ExportFormat defines the available export formats
type ExportFormat int

const (
	// ExportFormatJSON exports the outline as one indented JSON object
	ExportFormatJSON ExportFormat = iota
	// ExportFormatJSONL exports the outline as a single JSON line
	ExportFormatJSONL
	// ExportFormatCSV exports the headings as comma-separated values
	ExportFormatCSV
	// ExportFormatTSV exports the headings as tab-separated values
	ExportFormatTSV
)

// String returns a human-readable representation of the export format
func (ef ExportFormat) String() string {
	switch ef {
	case ExportFormatJSON:
		return "json"
	case ExportFormatJSONL:
		return "jsonl"
	case ExportFormatCSV:
		return "csv"
	case ExportFormatTSV:
		return "tsv"
	default:
		return "unknown"
	}
}

// FileExtension returns the typical file extension for this format
func (ef ExportFormat) FileExtension() string {
	switch ef {
	case ExportFormatJSON:
		return ".json"
	case ExportFormatJSONL:
		return ".jsonl"
	case ExportFormatCSV:
		return ".csv"
	case ExportFormatTSV:
		return ".tsv"
	default:
		return ".txt"
	}
}

// ParseFormat returns the format with the given name
func ParseFormat(name string) (ExportFormat, error) {
	switch strings.ToLower(name) {
	case "json", "":
		return ExportFormatJSON, nil
	case "jsonl":
		return ExportFormatJSONL, nil
	case "csv":
		return ExportFormatCSV, nil
	case "tsv":
		return ExportFormatTSV, nil
	default:
		return 0, fmt.Errorf("unknown export format %q", name)
	}
}

// ExportConfig holds configuration options for export
type ExportConfig struct {
	// Format specifies the export format
	Format ExportFormat

	// Indent is the per-level indentation of JSON output
	Indent string

	// Validate checks JSON output against the outline schema before writing
	Validate bool
}

// DefaultExportConfig returns indented JSON without validation
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		Format: ExportFormatJSON,
		Indent: "    ",
	}
}

// Exporter writes outlines in a configured format
type Exporter struct {
	config ExportConfig
}

// NewExporter creates an exporter with default configuration
func NewExporter() *Exporter {
	return &Exporter{config: DefaultExportConfig()}
}

// NewExporterWithConfig creates an exporter with custom configuration
func NewExporterWithConfig(config ExportConfig) *Exporter {
	return &Exporter{config: config}
}

// Export writes the outline to w
func (e *Exporter) Export(o *model.Outline, w io.Writer) error {
	if o == nil {
		o = model.NewOutline()
	}

	switch e.config.Format {
	case ExportFormatJSON, ExportFormatJSONL:
		data, err := e.marshalJSON(o)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case ExportFormatCSV:
		return exportDelimited(o, w, ',')
	case ExportFormatTSV:
		return exportDelimited(o, w, '\t')
	default:
		return fmt.Errorf("unsupported export format: %s", e.config.Format)
	}
}

// ExportToFile writes the outline to filename. The file is written to a
// temporary name in the same directory and renamed into place.
func (e *Exporter) ExportToFile(o *model.Outline, filename string) error {
	var buf bytes.Buffer
	if err := e.Export(o, &buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), ".outline-*")
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	return nil
}

// ExportToString exports the outline to a string
func (e *Exporter) ExportToString(o *model.Outline) (string, error) {
	var buf bytes.Buffer
	if err := e.Export(o, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// OutputPath returns the output file for an input document: the input's
// base name with its extension replaced, inside dir.
func (e *Exporter) OutputPath(dir, inputPath string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+e.config.Format.FileExtension())
}

// marshalJSON encodes without HTML escaping so text keeps characters like
// '&' and '<' verbatim.
func (e *Exporter) marshalJSON(o *model.Outline) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if e.config.Format == ExportFormatJSON {
		enc.SetIndent("", e.config.Indent)
	}
	if err := enc.Encode(o); err != nil {
		return nil, fmt.Errorf("encoding outline: %w", err)
	}

	if e.config.Validate {
		if err := Validate(buf.Bytes()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func exportDelimited(o *model.Outline, w io.Writer, delimiter rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter

	if err := cw.Write([]string{"level", "text", "page"}); err != nil {
		return err
	}
	for _, h := range o.Headings {
		if err := cw.Write([]string{h.Level.String(), h.Text, strconv.Itoa(h.Page)}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

//go:embed outline.schema.json
var outlineSchemaJSON []byte

const outlineSchemaURL = "https://outliner.local/schemas/outline.json"

var (
	outlineSchemaOnce sync.Once
	outlineSchema     *jsonschema.Schema
	outlineSchemaErr  error
)

// ErrInvalidOutline is returned when output fails schema validation
var ErrInvalidOutline = errors.New("outline does not match schema")

// Validate checks serialized outline JSON against the outline schema
func Validate(data []byte) error {
	outlineSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(outlineSchemaJSON))
		if err != nil {
			outlineSchemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(outlineSchemaURL, doc); err != nil {
			outlineSchemaErr = err
			return
		}
		outlineSchema, outlineSchemaErr = compiler.Compile(outlineSchemaURL)
	})
	if outlineSchemaErr != nil {
		return fmt.Errorf("outline schema: %w", outlineSchemaErr)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutline, err)
	}
	if err := outlineSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutline, err)
	}
	return nil
}
