package model

// Level is a classification label. The heading levels are title, H1, H2 and
// H3; a classifier may emit other labels, which are kept as-is.
type Level string

const (
	LevelTitle Level = "title"
	LevelH1    Level = "H1"
	LevelH2    Level = "H2"
	LevelH3    Level = "H3"

	// Labels that never produce a heading
	LevelBody       Level = "body"
	LevelNotHeading Level = "not_heading"
	LevelContent    Level = "content"
	LevelFooter     Level = "footer"
)

// String returns the label text
func (l Level) String() string {
	return string(l)
}

// IsStyleLevel reports whether l is one of the levels the style mapper assigns
func (l Level) IsStyleLevel() bool {
	return l == LevelH1 || l == LevelH2 || l == LevelH3
}

// IsDiscarded reports whether lines with this final label are dropped from
// the heading candidates.
func (l Level) IsDiscarded() bool {
	switch l {
	case LevelNotHeading, LevelContent, LevelFooter, LevelBody:
		return true
	default:
		return false
	}
}

// Heading represents a classified heading candidate
type Heading struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`

	// Y is the vertical position (top-left origin) used for ordering and merging
	Y float64 `json:"-"`
}

// Outline is the final result for one document
type Outline struct {
	Title    string    `json:"title"`
	Headings []Heading `json:"outline"`
}

// NewOutline returns an empty outline whose headings serialize as [] rather than null
func NewOutline() *Outline {
	return &Outline{Headings: make([]Heading, 0)}
}

// HeadingCount returns the number of headings in the outline
func (o *Outline) HeadingCount() int {
	if o == nil {
		return 0
	}
	return len(o.Headings)
}

// HeadingsAtLevel returns the headings with the given level
func (o *Outline) HeadingsAtLevel(level Level) []Heading {
	if o == nil {
		return nil
	}

	var result []Heading
	for _, h := range o.Headings {
		if h.Level == level {
			result = append(result, h)
		}
	}
	return result
}

// IsEmpty reports whether the outline has neither a title nor headings
func (o *Outline) IsEmpty() bool {
	return o == nil || (o.Title == "" && len(o.Headings) == 0)
}
