package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// ErrMissingColumn is returned when a structured line file lacks one of the
// text, page or line_num columns.
var ErrMissingColumn = errors.New("missing required column")

// CSVParser reads pre-extracted lines from a CSV with text, page and
// line_num columns. Text is kept as written, empty rows included.
type CSVParser struct{}

func (p *CSVParser) ParseLines(r io.Reader, filename string) ([]doctree.Line, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	idx := map[string]int{"text": -1, "page": -1, "line_num": -1}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if j, ok := idx[key]; ok && j < 0 {
			idx[key] = i
		}
	}
	for _, col := range []string{"text", "page", "line_num"} {
		if idx[col] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	lines := []doctree.Line{}
	row := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		get := func(col string) string {
			if i := idx[col]; i < len(rec) {
				return rec[i]
			}
			return ""
		}

		page, err := strconv.Atoi(strings.TrimSpace(get("page")))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid page %q", row, get("page"))
		}
		num, err := strconv.Atoi(strings.TrimSpace(get("line_num")))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid line_num %q", row, get("line_num"))
		}
		lines = append(lines, doctree.Line{Text: get("text"), Page: page, LineNum: num})
	}

	doctree.SortLines(lines)
	return lines, nil
}
