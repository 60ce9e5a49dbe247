package spans

import (
	"context"
	"errors"
	"testing"

	tlayout "github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/text"

	"github.com/tsawler/outliner/internal/pdftest"
	"github.com/tsawler/outliner/layout"
	"github.com/tsawler/outliner/model"
)

func TestStripSubsetTag(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ABCDEF+Arial-BoldMT", "Arial-BoldMT"},
		{"Arial-BoldMT", "Arial-BoldMT"},
		{"abcdef+Arial", "abcdef+Arial"},
		{"ABCDE+Arial", "ABCDE+Arial"},
		{"ABCDEF+", "ABCDEF+"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := stripSubsetTag(tt.input); got != tt.expected {
			t.Errorf("stripSubsetTag(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestResolveFontName(t *testing.T) {
	fonts := map[string]string{
		"F1": "QWERTY+Calibri-Bold",
		"F2": "Helvetica",
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"/F1", "Calibri-Bold"},
		{"F2", "Helvetica"},
		{"/F9", "F9"},
	}

	for _, tt := range tests {
		if got := resolveFontName(tt.input, fonts); got != tt.expected {
			t.Errorf("resolveFontName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLineSpan(t *testing.T) {
	line := tlayout.Line{
		Text: "  ﬁnal Report ",
		Fragments: []text.TextFragment{
			{Text: "ﬁnal", X: 72, Y: 700, Height: 14, FontName: "/F1", FontSize: 14.004},
			{Text: "Report", X: 110, Y: 700, Height: 14, FontName: "/F2", FontSize: 14.004},
		},
	}
	fonts := map[string]string{"F1": "Times-Bold", "F2": "Times-Roman"}

	span, ok := lineSpan(line, fonts, 792, 3)
	if !ok {
		t.Fatal("lineSpan() ok = false")
	}

	want := model.Span{
		Text:       "final Report",
		FontName:   "Times-Bold",
		FontSize:   14,
		IsBold:     true,
		X0:         72,
		Y0:         78,
		PageNumber: 3,
	}
	if span != want {
		t.Errorf("lineSpan() = %+v, want %+v", span, want)
	}

	if _, ok := lineSpan(tlayout.Line{Text: "   ", Fragments: line.Fragments}, fonts, 792, 1); ok {
		t.Error("blank line should be skipped")
	}
	if _, ok := lineSpan(tlayout.Line{Text: "x"}, fonts, 792, 1); ok {
		t.Error("line without fragments should be skipped")
	}
}

func TestStatic(t *testing.T) {
	src := Static{
		{PageNumber: 1, Spans: []model.Span{{Text: "one"}}},
		{PageNumber: 2, Spans: []model.Span{{Text: "two"}}},
	}

	count, _ := src.PageCount()
	if count != 2 {
		t.Errorf("PageCount() = %d, want 2", count)
	}
	if _, err := src.Page(context.Background(), 3); err == nil {
		t.Error("Page(3) should fail")
	}

	pages, err := ReadAll(context.Background(), src, []int{2})
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(pages) != 1 || pages[0].Spans[0].Text != "two" {
		t.Errorf("ReadAll([2]) = %+v", pages)
	}

	all, err := ReadAll(context.Background(), src, nil)
	if err != nil || len(all) != 2 {
		t.Errorf("ReadAll(nil) = %d pages, %v", len(all), err)
	}
}

func TestReadAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadAll(ctx, Static{{PageNumber: 1}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ReadAll() error = %v, want context.Canceled", err)
	}
}

func TestPDFSource(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "heading.pdf", pdftest.HeadingDocument())

	src, err := OpenPDF(path)
	if err != nil {
		t.Fatalf("OpenPDF() error = %v", err)
	}
	defer src.Close()

	count, err := src.PageCount()
	if err != nil || count != 1 {
		t.Fatalf("PageCount() = %d, %v", count, err)
	}

	page, err := src.Page(context.Background(), 1)
	if err != nil {
		t.Fatalf("Page(1) error = %v", err)
	}
	if page.PageNumber != 1 {
		t.Errorf("PageNumber = %d, want 1", page.PageNumber)
	}
	if len(page.Spans) != 5 {
		t.Fatalf("got %d spans, want 5: %+v", len(page.Spans), page.Spans)
	}

	first := page.Spans[0]
	if first.Text != "1. Introduction" {
		t.Errorf("first span text = %q", first.Text)
	}
	if first.FontName != "Helvetica-Bold" || !first.IsBold {
		t.Errorf("first span font = %q bold=%v", first.FontName, first.IsBold)
	}
	if first.FontSize != 16 {
		t.Errorf("first span size = %v, want 16", first.FontSize)
	}
	if first.Y0 >= page.Spans[1].Y0 {
		t.Error("spans should be ordered top to bottom with increasing Y0")
	}
	if page.Spans[1].IsBold {
		t.Error("body span should not be bold")
	}

	var merged []layout.PageSpans
	merged = append(merged, page)
	if lines := layout.NewMerger().Merge(merged); len(lines) != 5 {
		t.Errorf("Merge() produced %d lines, want 5", len(lines))
	}
}

func TestOpenPDFMissing(t *testing.T) {
	if _, err := OpenPDF("does-not-exist.pdf"); err == nil {
		t.Error("OpenPDF() should fail for a missing file")
	}
}
