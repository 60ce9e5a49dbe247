// Package index maintains a full-text index of produced outlines so headings
// can be searched across documents.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/tsawler/outliner/model"
)

// DefaultSize is the number of hits returned when a search does not set one
const DefaultSize = 10

// MaxSize caps the number of hits per search
const MaxSize = 100

// ErrEmptyQuery is returned when a search has no query text
var ErrEmptyQuery = errors.New("empty query")

// Document is the indexed form of one outline
type Document struct {
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Headings []string `json:"headings"`
	Levels   []string `json:"levels"`
	Language string   `json:"language"`
}

// NewDocument builds the indexed form of an outline
func NewDocument(path string, o *model.Outline, language string) Document {
	doc := Document{Path: path, Language: language}
	if o == nil {
		return doc
	}

	doc.Title = o.Title
	for _, h := range o.Headings {
		doc.Headings = append(doc.Headings, h.Text)
		doc.Levels = append(doc.Levels, h.Level.String())
	}
	return doc
}

// Hit is one search result
type Hit struct {
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Headings []string `json:"headings,omitempty"`
	Language string   `json:"language,omitempty"`
	Score    float64  `json:"score"`
}

// Results is the outcome of a search
type Results struct {
	Query string `json:"query"`
	Total int    `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Index wraps a bleve index of outlines
type Index struct {
	idx  bleve.Index
	path string
}

// NewMapping returns the index mapping for outline documents: title and
// headings are analysed text, path, levels and language are keywords.
func NewMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"

	keyword := bleve.NewKeywordFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("headings", text)
	doc.AddFieldMappingsAt("path", keyword)
	doc.AddFieldMappingsAt("levels", keyword)
	doc.AddFieldMappingsAt("language", keyword)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Open opens the index at path, creating it when it does not exist
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open index %s: %w", path, err)
		}
		return &Index{idx: idx, path: path}, nil
	}

	idx, err := bleve.New(path, NewMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index %s: %w", path, err)
	}
	return &Index{idx: idx, path: path}, nil
}

// NewMemory returns an index held in memory only
func NewMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(NewMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// Path returns the index directory, empty for an in-memory index
func (i *Index) Path() string {
	return i.path
}

// Add indexes an outline under its document path, replacing any earlier
// version of the same document.
func (i *Index) Add(path string, o *model.Outline, language string) error {
	if err := i.idx.Index(path, NewDocument(path, o, language)); err != nil {
		return fmt.Errorf("failed to index %s: %w", path, err)
	}
	return nil
}

// AddBatch indexes several documents in one batch
func (i *Index) AddBatch(docs []Document) error {
	batch := i.idx.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.Path, doc); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", doc.Path, err)
		}
	}
	if batch.Size() == 0 {
		return nil
	}
	if err := i.idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to index batch: %w", err)
	}
	return nil
}

// Delete removes a document from the index
func (i *Index) Delete(path string) error {
	return i.idx.Delete(path)
}

// DocCount returns the number of indexed documents
func (i *Index) DocCount() (uint64, error) {
	return i.idx.DocCount()
}

// Search runs a match query over titles and headings. size <= 0 uses
// DefaultSize; larger values are capped at MaxSize.
func (i *Index) Search(ctx context.Context, query string, size int) (*Results, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = size
	req.Fields = []string{"path", "title", "headings", "language"}

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := &Results{
		Query: query,
		Total: int(res.Total),
		Hits:  make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{Path: h.ID, Score: h.Score}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		if lang, ok := h.Fields["language"].(string); ok {
			hit.Language = lang
		}
		hit.Headings = stringList(h.Fields["headings"])
		results.Hits = append(results.Hits, hit)
	}
	return results, nil
}

// Close closes the index
func (i *Index) Close() error {
	return i.idx.Close()
}

// stringList reads a stored array field. A single-element array comes back
// as a bare string.
func stringList(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
