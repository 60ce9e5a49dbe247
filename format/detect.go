// Package format decides which input files are PDF documents.
package format

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a recognized input format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF indicates a PDF document.
	PDF
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	if f == PDF {
		return ".pdf"
	}
	return ""
}

// pdfMagic is the start of a PDF header
var pdfMagic = []byte("%PDF-")

// headerWindow is how far into a file the PDF header may appear. Readers
// commonly tolerate leading junk before the header.
const headerWindow = 1024

// Detect determines the format from the filename extension, case-insensitively.
func Detect(filename string) Format {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return PDF
	}
	return Unknown
}

// DetectFromMagic checks the leading bytes for a PDF header.
func DetectFromMagic(data []byte) Format {
	if len(data) > headerWindow {
		data = data[:headerWindow]
	}
	if bytes.Contains(data, pdfMagic) {
		return PDF
	}
	return Unknown
}

// DetectFromReader reads the first bytes of r and checks them for a PDF header.
func DetectFromReader(r io.Reader) (Format, error) {
	header := make([]byte, headerWindow)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Unknown, err
	}
	return DetectFromMagic(header[:n]), nil
}

// DetectFile reports the format of the file at path from its content.
func DetectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()

	return DetectFromReader(f)
}

// IsPDFFile reports whether path has a .pdf extension and starts with a PDF header.
func IsPDFFile(path string) bool {
	if Detect(path) != PDF {
		return false
	}
	f, err := DetectFile(path)
	return err == nil && f == PDF
}
