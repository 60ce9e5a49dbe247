// Package spans reads positioned text from documents.
//
// A [Source] yields the text of one page at a time as [model.Span] values in
// reading order, top to bottom. [PDFSource] reads PDFs through the tabula
// engine; [Static] serves spans that are already in memory.
package spans

import (
	"context"
	"fmt"

	"github.com/tsawler/outliner/layout"
)

// Source yields the spans of a document page by page
type Source interface {
	// PageCount returns the number of pages
	PageCount() (int, error)

	// Page returns the spans of a page. Pages are numbered from 1.
	Page(ctx context.Context, pageNumber int) (layout.PageSpans, error)

	// Close releases the source
	Close() error
}

// ReadAll returns the spans of the given pages, or of every page when
// pageNumbers is empty. Pages are returned in the order requested.
func ReadAll(ctx context.Context, src Source, pageNumbers []int) ([]layout.PageSpans, error) {
	if len(pageNumbers) == 0 {
		count, err := src.PageCount()
		if err != nil {
			return nil, err
		}
		pageNumbers = make([]int, count)
		for i := range pageNumbers {
			pageNumbers[i] = i + 1
		}
	}

	result := make([]layout.PageSpans, 0, len(pageNumbers))
	for _, n := range pageNumbers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := src.Page(ctx, n)
		if err != nil {
			return nil, err
		}
		result = append(result, page)
	}

	return result, nil
}

// Static is an in-memory Source
type Static []layout.PageSpans

// PageCount returns the number of pages
func (s Static) PageCount() (int, error) {
	return len(s), nil
}

// Page returns the page with the given 1-based number
func (s Static) Page(ctx context.Context, pageNumber int) (layout.PageSpans, error) {
	if pageNumber < 1 || pageNumber > len(s) {
		return layout.PageSpans{}, fmt.Errorf("page %d out of range (document has %d pages)", pageNumber, len(s))
	}
	return s[pageNumber-1], nil
}

// Close does nothing
func (s Static) Close() error {
	return nil
}
