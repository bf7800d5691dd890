package doctree

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Line is one physical text line as produced by a parser.
type Line struct {
	Text    string `json:"text"`
	Page    int    `json:"page"`     // 1-based
	LineNum int    `json:"line_num"` // 0-based within the page
}

// FeatureVector holds the classifier inputs derived from a Line.
type FeatureVector struct {
	CharLen          int     `json:"char_len"`
	WordCount        int     `json:"word_count"`
	IsAllCaps        int     `json:"is_all_caps"`
	IsTitleCase      int     `json:"is_title_case"`
	HasNumberPrefix  int     `json:"has_number_prefix"`
	RelativeFontSize float64 `json:"relative_fontSize"`
}

// Columns is the fixed column order of a FeatureVector as seen by a classifier.
var Columns = []string{
	"char_len",
	"word_count",
	"is_all_caps",
	"is_title_case",
	"has_number_prefix",
	"relative_fontSize",
}

// Row returns the vector in Columns order.
func (v FeatureVector) Row() []float64 {
	return []float64{
		float64(v.CharLen),
		float64(v.WordCount),
		float64(v.IsAllCaps),
		float64(v.IsTitleCase),
		float64(v.HasNumberPrefix),
		v.RelativeFontSize,
	}
}

// BodyLabel marks a line that is not part of the outline.
const BodyLabel = "body"

// LabeledLine is a Line with its features and predicted label attached.
type LabeledLine struct {
	Line
	Features FeatureVector `json:"features"`
	Label    string        `json:"predicted_label"`
}

// IsHeading reports whether the line belongs in the outline.
func (l LabeledLine) IsHeading() bool {
	return l.Label != BodyLabel
}

// HeadingNode is a recursive outline entry.
type HeadingNode struct {
	Level    string         `json:"level"`
	Text     string         `json:"text"`
	Page     int            `json:"page"`
	Children []*HeadingNode `json:"children"`
}

// Outline is the root of an inferred document outline.
type Outline struct {
	Title   string         `json:"title"`
	Outline []*HeadingNode `json:"outline"`
}

// UntitledTitle is used when a document produced no headings.
const UntitledTitle = "Untitled"

// Empty returns the outline of a document without headings.
func Empty() *Outline {
	return &Outline{Title: UntitledTitle, Outline: []*HeadingNode{}}
}

// Count returns the number of nodes in the outline.
func (o *Outline) Count() int {
	n := 0
	var walk func(nodes []*HeadingNode)
	walk = func(nodes []*HeadingNode) {
		for _, h := range nodes {
			n++
			walk(h.Children)
		}
	}
	walk(o.Outline)
	return n
}

// WriteJSON writes the outline with two-space indentation.
func (o *Outline) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(o)
}

// ErrInvalidLine reports a Line that violates the page/line_num contract.
var ErrInvalidLine = errors.New("invalid line")

// ValidateLines checks every line's position fields.
func ValidateLines(lines []Line) error {
	for i, l := range lines {
		if l.Page < 1 {
			return fmt.Errorf("%w: line %d: page %d < 1", ErrInvalidLine, i, l.Page)
		}
		if l.LineNum < 0 {
			return fmt.Errorf("%w: line %d: line_num %d < 0", ErrInvalidLine, i, l.LineNum)
		}
	}
	return nil
}

// SortLines orders lines by page, then line_num, keeping input order on ties.
func SortLines(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Page != lines[j].Page {
			return lines[i].Page < lines[j].Page
		}
		return lines[i].LineNum < lines[j].LineNum
	})
}
