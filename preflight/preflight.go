// Package preflight checks a PDF before extraction and reports its basic
// properties: page count, version, encryption and Info title.
package preflight

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tsawler/outliner/format"
)

var (
	// ErrNotPDF is returned for files that do not carry a PDF header
	ErrNotPDF = errors.New("not a PDF file")

	// ErrTooLarge is returned for files above the configured size limit
	ErrTooLarge = errors.New("file too large")

	// ErrInvalid is returned when the document fails structural validation
	ErrInvalid = errors.New("invalid PDF")
)

// Info describes a PDF document
type Info struct {
	Path      string
	FileSize  int64
	PageCount int
	Version   string
	Encrypted bool
	Title     string
}

// Check validates the file at path. maxSize limits the file size in bytes;
// zero or less disables the limit.
func Check(path string, maxSize int64) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotPDF)
	}
	if maxSize > 0 && stat.Size() > maxSize {
		return nil, fmt.Errorf("%s: %w (%d bytes, limit %d)", path, ErrTooLarge, stat.Size(), maxSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	kind, err := format.DetectFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if kind != format.PDF {
		return nil, fmt.Errorf("%s: %w", path, ErrNotPDF)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrInvalid, err)
	}

	info := &Info{
		Path:      path,
		FileSize:  stat.Size(),
		PageCount: ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
		Title:     strings.TrimSpace(ctx.Title),
	}
	if ctx.HeaderVersion != nil {
		info.Version = ctx.HeaderVersion.String()
	}

	return info, nil
}
