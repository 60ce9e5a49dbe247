// Package model defines the data structures that flow through the outline
// pipeline, from raw positioned text to the final document outline.
//
// # Pipeline Types
//
// The types are listed in the order they are produced:
//
//   - [Span] - a run of text with uniform font, as reported by the PDF extractor
//   - [Line] - one or more spans merged by layout proximity, plus derived attributes
//   - [Heading] - a line that survived classification, with its level
//   - [Outline] - the document title and its ordered headings
//
// # Coordinates
//
// All positions use a top-left origin: y grows downward, so a smaller Y is
// higher on the page. Page numbers are 1-indexed.
//
// # Styles
//
// A [Style] is the (font size, bold) pair used to infer heading levels from the
// distribution of fonts in a document.
//
// # Serialization
//
// [Outline] marshals to the published JSON shape:
//
//	{"title": "...", "outline": [{"level": "H1", "text": "...", "page": 1}]}
//
// The vertical position of a heading is kept for ordering but never serialized.
package model
