package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/features"
)

// NDJSONParser reads one {"text","page","line_num"} object per line. Text
// is kept as written; blank input lines between objects are ignored.
type NDJSONParser struct{}

type ndjsonLine struct {
	Text    json.RawMessage `json:"text"`
	Page    int             `json:"page"`
	LineNum int             `json:"line_num"`
}

func (p *NDJSONParser) ParseLines(r io.Reader, filename string) ([]doctree.Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lines := []doctree.Line{}
	n := 0
	for scanner.Scan() {
		n++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec ndjsonLine
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		var text string
		if err := json.Unmarshal(rec.Text, &text); err != nil {
			return nil, fmt.Errorf("line %d: %w: text is %s", n, features.ErrNonText, describeJSON(rec.Text))
		}
		lines = append(lines, doctree.Line{Text: text, Page: rec.Page, LineNum: rec.LineNum})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	doctree.SortLines(lines)
	return lines, nil
}

func describeJSON(v json.RawMessage) string {
	s := strings.TrimSpace(string(v))
	switch {
	case s == "" || s == "null":
		return "missing"
	case strings.HasPrefix(s, "{"):
		return "an object"
	case strings.HasPrefix(s, "["):
		return "an array"
	case s == "true" || s == "false":
		return "a boolean"
	}
	return "a number"
}
