// Package pdftest builds small, valid PDF files for tests.
package pdftest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// Text is one text run drawn at a baseline position in PDF coordinates
// (origin bottom-left). Font is a standard Type1 font such as "Helvetica"
// or "Helvetica-Bold".
type Text struct {
	Font string
	Size float64
	X, Y float64
	Text string
}

// Page is the text drawn on one page
type Page []Text

// Document describes a PDF to build
type Document struct {
	// Title is written to the Info dictionary when not empty
	Title string
	Pages []Page
}

// Page size in points (US Letter)
const (
	PageWidth  = 612
	PageHeight = 792
)

// Build renders the document as PDF 1.4 with an uncompressed xref table
func Build(doc Document) []byte {
	fontIDs := map[string]int{}
	var fonts []string
	for _, page := range doc.Pages {
		for _, t := range page {
			if _, ok := fontIDs[t.Font]; !ok {
				fontIDs[t.Font] = 0
				fonts = append(fonts, t.Font)
			}
		}
	}
	sort.Strings(fonts)

	// 1 catalog, 2 page tree, 3 info, then fonts, then page and content pairs
	next := 4
	for _, f := range fonts {
		fontIDs[f] = next
		next++
	}
	pageIDs := make([]int, len(doc.Pages))
	for i := range doc.Pages {
		pageIDs[i] = next
		next += 2
	}
	size := next

	var b strings.Builder
	offsets := make([]int, size)
	b.WriteString("%PDF-1.4\n")

	obj := func(id int, body string) {
		offsets[id] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pageIDs))
	for i, id := range pageIDs {
		kids[i] = fmt.Sprintf("%d 0 R", id)
	}
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pageIDs)))

	obj(3, fmt.Sprintf("<< /Title (%s) /Producer (pdftest) >>", escape(doc.Title)))

	var fontRes strings.Builder
	for i, f := range fonts {
		obj(fontIDs[f], fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding >>", f))
		fmt.Fprintf(&fontRes, " /F%d %d 0 R", i+1, fontIDs[f])
	}

	resName := map[string]string{}
	for i, f := range fonts {
		resName[f] = "F" + strconv.Itoa(i+1)
	}

	for i, page := range doc.Pages {
		id := pageIDs[i]
		obj(id, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents %d 0 R /Resources << /Font <<%s >> >> >>",
			PageWidth, PageHeight, id+1, fontRes.String()))

		var stream strings.Builder
		for _, t := range page {
			fmt.Fprintf(&stream, "BT\n/%s %s Tf\n1 0 0 1 %s %s Tm\n(%s) Tj\nET\n",
				resName[t.Font], num(t.Size), num(t.X), num(t.Y), escape(t.Text))
		}
		content := stream.String()
		obj(id+1, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", size)
	b.WriteString("0000000000 65535 f \n")
	for id := 1; id < size; id++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[id])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R /Info 3 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xref)

	return []byte(b.String())
}

// Write builds the document into dir/name and returns the path
func Write(t testing.TB, dir, name string, doc Document) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(doc), 0o644); err != nil {
		t.Fatalf("failed to write PDF: %v", err)
	}
	return path
}

// HeadingDocument returns a one-page document with a bold 16pt numbered
// heading above several 11pt body lines.
func HeadingDocument() Document {
	page := Page{
		{Font: "Helvetica-Bold", Size: 16, X: 72, Y: 720, Text: "1. Introduction"},
	}
	body := []string{
		"This report describes the approach taken for the project.",
		"It covers the scope, the schedule and the expected results.",
		"Each section below expands on one part of the plan.",
		"The appendix lists the sources that were consulted.",
	}
	for i, line := range body {
		page = append(page, Text{Font: "Helvetica", Size: 11, X: 72, Y: float64(680 - 20*i), Text: line})
	}
	return Document{Pages: []Page{page}}
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
