// Package export writes labeled lines as prediction tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/xuri/excelize/v2"
)

// Header is the column order of every prediction table.
var Header = append(append([]string{"page", "line_num", "text"}, doctree.Columns...), "predicted_label")

const sheetName = "predictions"

func row(l doctree.LabeledLine) []string {
	f := l.Features
	return []string{
		strconv.Itoa(l.Page),
		strconv.Itoa(l.LineNum),
		l.Text,
		strconv.Itoa(f.CharLen),
		strconv.Itoa(f.WordCount),
		strconv.Itoa(f.IsAllCaps),
		strconv.Itoa(f.IsTitleCase),
		strconv.Itoa(f.HasNumberPrefix),
		strconv.FormatFloat(f.RelativeFontSize, 'f', -1, 64),
		l.Label,
	}
}

// WriteCSV writes a header row followed by one row per line.
func WriteCSV(w io.Writer, lines []doctree.LabeledLine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, l := range lines {
		if err := cw.Write(row(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same table as a single-sheet workbook. Numeric
// columns are stored as numbers.
func WriteXLSX(w io.Writer, lines []doctree.LabeledLine) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for c, h := range Header {
		if err := setCell(f, c, 1, h); err != nil {
			return err
		}
	}
	for i, l := range lines {
		r := i + 2
		ft := l.Features
		values := []any{
			l.Page, l.LineNum, l.Text,
			ft.CharLen, ft.WordCount, ft.IsAllCaps, ft.IsTitleCase, ft.HasNumberPrefix,
			ft.RelativeFontSize, l.Label,
		}
		for c, v := range values {
			if err := setCell(f, c, r, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheetName, cell, v)
}
