package spans

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/tabula/core"
	tlayout "github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"

	"github.com/tsawler/outliner/layout"
	"github.com/tsawler/outliner/model"
	"github.com/tsawler/outliner/ocr"
)

// OCRFontName is the font name given to spans recognized from page images
const OCRFontName = "OCR"

// Recognizer finds text lines in an encoded page image
type Recognizer interface {
	RecognizeLines(imageData []byte) ([]ocr.Line, error)
}

// PDFSource reads spans from a PDF file
type PDFSource struct {
	r          *reader.Reader
	detector   *tlayout.LineDetector
	recognizer Recognizer
}

// OpenPDF opens a PDF file for span extraction
func OpenPDF(path string) (*PDFSource, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	return &PDFSource{
		r:        r,
		detector: tlayout.NewLineDetector(),
	}, nil
}

// WithRecognizer enables the image fallback for pages without a text layer
func (s *PDFSource) WithRecognizer(rec Recognizer) *PDFSource {
	s.recognizer = rec
	return s
}

// Close closes the underlying file
func (s *PDFSource) Close() error {
	return s.r.Close()
}

// PageCount returns the number of pages in the document
func (s *PDFSource) PageCount() (int, error) {
	return s.r.PageCount()
}

// Page extracts the spans of one page. Every detected text line becomes one
// span carrying the font of its first fragment. Coordinates are converted to
// a top-left origin.
func (s *PDFSource) Page(ctx context.Context, pageNumber int) (layout.PageSpans, error) {
	result := layout.PageSpans{PageNumber: pageNumber}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	page, err := s.r.GetPage(pageNumber - 1)
	if err != nil {
		return result, fmt.Errorf("page %d: %w", pageNumber, err)
	}

	width, err := page.Width()
	if err != nil {
		return result, fmt.Errorf("page %d: failed to get width: %w", pageNumber, err)
	}
	height, err := page.Height()
	if err != nil {
		return result, fmt.Errorf("page %d: failed to get height: %w", pageNumber, err)
	}

	fragments, err := s.r.ExtractTextFragments(page)
	if err != nil {
		return result, fmt.Errorf("page %d: %w", pageNumber, err)
	}

	if len(fragments) > 0 {
		fonts := s.fontNames(page)
		lines := s.detector.Detect(fragments, width, height)
		for _, line := range lines.Lines {
			if span, ok := lineSpan(line, fonts, height, pageNumber); ok {
				result.Spans = append(result.Spans, span)
			}
		}
	}

	if len(result.Spans) == 0 && s.recognizer != nil {
		result.Spans, err = s.recognize(page, width, height, pageNumber)
		if err != nil {
			return result, fmt.Errorf("page %d: %w", pageNumber, err)
		}
	}

	return result, nil
}

// lineSpan converts a detected line into a span. ok is false for lines
// without visible text.
func lineSpan(line tlayout.Line, fonts map[string]string, pageHeight float64, pageNumber int) (model.Span, bool) {
	if len(line.Fragments) == 0 {
		return model.Span{}, false
	}

	text := strings.TrimSpace(norm.NFKC.String(line.Text))
	if text == "" {
		return model.Span{}, false
	}

	first := line.Fragments[0]
	fontName := resolveFontName(first.FontName, fonts)

	return model.Span{
		Text:       text,
		FontName:   fontName,
		FontSize:   model.RoundFontSize(first.FontSize),
		IsBold:     model.IsBoldFont(fontName),
		X0:         first.X,
		Y0:         pageHeight - (first.Y + first.Height),
		PageNumber: pageNumber,
	}, true
}

// fontNames maps the page's font resource names to their base font names
func (s *PDFSource) fontNames(page *pages.Page) map[string]string {
	names := make(map[string]string)

	resources, err := page.Resources()
	if err != nil || resources == nil {
		return names
	}

	fontObj, err := s.r.Resolve(resources.Get("Font"))
	if err != nil {
		return names
	}
	fontDict, ok := fontObj.(core.Dict)
	if !ok {
		return names
	}

	for resName, obj := range fontDict {
		resolved, err := s.r.Resolve(obj)
		if err != nil {
			continue
		}
		dict, ok := resolved.(core.Dict)
		if !ok {
			continue
		}
		if base, ok := dict.GetName("BaseFont"); ok {
			names[strings.TrimPrefix(resName, "/")] = string(base)
		}
	}

	return names
}

// resolveFontName turns a fragment's font resource name into a font name
// without subset tag, falling back to the resource name itself.
func resolveFontName(resourceName string, fonts map[string]string) string {
	name := strings.TrimPrefix(resourceName, "/")
	if base, ok := fonts[name]; ok && base != "" {
		name = strings.TrimPrefix(base, "/")
	}
	return stripSubsetTag(name)
}

// stripSubsetTag removes a six capital letter subset prefix such as "ABCDEF+"
func stripSubsetTag(name string) string {
	if len(name) < 8 || name[6] != '+' {
		return name
	}
	for i := 0; i < 6; i++ {
		if name[i] < 'A' || name[i] > 'Z' {
			return name
		}
	}
	return name[7:]
}

// recognize runs OCR on the largest image of a page, assumed to cover the
// whole page.
func (s *PDFSource) recognize(page *pages.Page, width, height float64, pageNumber int) ([]model.Span, error) {
	images, err := s.r.ExtractPageImages(page)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}
	if len(images) == 0 {
		return nil, nil
	}

	largest := images[0]
	for _, img := range images[1:] {
		if img.Width*img.Height > largest.Width*largest.Height {
			largest = img
		}
	}

	data, err := largest.ToPNG()
	if err != nil {
		return nil, fmt.Errorf("failed to encode image %s: %w", largest.Name, err)
	}

	lines, err := s.recognizer.RecognizeLines(data)
	if err != nil {
		return nil, err
	}

	result := make([]model.Span, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(norm.NFKC.String(line.Text))
		if text == "" {
			continue
		}

		x0, y0, size := line.Scale(largest.Width, largest.Height, width, height)
		if size <= 0 {
			continue
		}

		result = append(result, model.Span{
			Text:       text,
			FontName:   OCRFontName,
			FontSize:   model.RoundFontSize(size),
			X0:         x0,
			Y0:         y0,
			PageNumber: pageNumber,
		})
	}

	return result, nil
}
