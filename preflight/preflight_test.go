package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/outliner/internal/pdftest"
)

func TestCheck(t *testing.T) {
	doc := pdftest.HeadingDocument()
	doc.Title = "Project Report"
	doc.Pages = append(doc.Pages, pdftest.Page{
		{Font: "Helvetica", Size: 11, X: 72, Y: 700, Text: "Second page"},
	})

	path := pdftest.Write(t, t.TempDir(), "report.pdf", doc)

	info, err := Check(path, 0)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if info.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", info.PageCount)
	}
	if info.Title != "Project Report" {
		t.Errorf("Title = %q, want %q", info.Title, "Project Report")
	}
	if info.Version != "1.4" {
		t.Errorf("Version = %q, want 1.4", info.Version)
	}
	if info.Encrypted {
		t.Error("Encrypted = true, want false")
	}
	if info.FileSize <= 0 {
		t.Errorf("FileSize = %d", info.FileSize)
	}
}

func TestCheckErrors(t *testing.T) {
	dir := t.TempDir()

	notPDF := filepath.Join(dir, "notes.pdf")
	if err := os.WriteFile(notPDF, []byte("plain text, not a PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Check(notPDF, 0); !errors.Is(err, ErrNotPDF) {
		t.Errorf("Check(text) error = %v, want ErrNotPDF", err)
	}

	large := pdftest.Write(t, dir, "large.pdf", pdftest.HeadingDocument())
	if _, err := Check(large, 10); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Check(limit 10) error = %v, want ErrTooLarge", err)
	}

	broken := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(broken, []byte("%PDF-1.4\nthis is not a document"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Check(broken, 0); !errors.Is(err, ErrInvalid) {
		t.Errorf("Check(broken) error = %v, want ErrInvalid", err)
	}

	if _, err := Check(filepath.Join(dir, "missing.pdf"), 0); err == nil {
		t.Error("Check(missing) should fail")
	}

	if _, err := Check(dir, 0); !errors.Is(err, ErrNotPDF) {
		t.Errorf("Check(dir) error = %v, want ErrNotPDF", err)
	}
}
