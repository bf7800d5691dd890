package doctree

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidateLines(t *testing.T) {
	tests := []struct {
		name    string
		lines   []Line
		wantErr bool
	}{
		{"empty", nil, false},
		{"valid", []Line{{Text: "a", Page: 1, LineNum: 0}, {Text: "b", Page: 3, LineNum: 7}}, false},
		{"page zero", []Line{{Text: "a", Page: 0}}, true},
		{"negative line", []Line{{Text: "a", Page: 1, LineNum: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLines(tt.lines)
			if tt.wantErr != (err != nil) {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidLine) {
				t.Errorf("expected ErrInvalidLine, got %v", err)
			}
		})
	}
}

func TestSortLines_Stable(t *testing.T) {
	lines := []Line{
		{Text: "p2", Page: 2, LineNum: 0},
		{Text: "p1-1", Page: 1, LineNum: 1},
		{Text: "dup-a", Page: 1, LineNum: 0},
		{Text: "dup-b", Page: 1, LineNum: 0},
	}
	SortLines(lines)
	var got []string
	for _, l := range lines {
		got = append(got, l.Text)
	}
	if diff := cmp.Diff([]string{"dup-a", "dup-b", "p1-1", "p2"}, got); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestFeatureVector_Row(t *testing.T) {
	v := FeatureVector{CharLen: 15, WordCount: 2, IsAllCaps: 1, IsTitleCase: 0, HasNumberPrefix: 1, RelativeFontSize: -7.5}
	want := []float64{15, 2, 1, 0, 1, -7.5}
	if diff := cmp.Diff(want, v.Row()); diff != "" {
		t.Errorf("unexpected row (-want +got):\n%s", diff)
	}
	if len(Columns) != len(want) {
		t.Errorf("expected %d columns, got %d", len(want), len(Columns))
	}
}

func TestOutline_WriteJSON(t *testing.T) {
	o := &Outline{
		Title: "A & B",
		Outline: []*HeadingNode{
			{Level: "H1", Text: "A & B", Page: 1, Children: []*HeadingNode{
				{Level: "H2", Text: "<c>", Page: 2, Children: []*HeadingNode{}},
			}},
		},
	}
	var buf bytes.Buffer
	if err := o.WriteJSON(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := `{
  "title": "A & B",
  "outline": [
    {
      "level": "H1",
      "text": "A & B",
      "page": 1,
      "children": [
        {
          "level": "H2",
          "text": "<c>",
          "page": 2,
          "children": []
        }
      ]
    }
  ]
}
`
	if got := buf.String(); got != want {
		t.Errorf("unexpected JSON:\n%s", got)
	}
	if o.Count() != 2 {
		t.Errorf("expected 2 nodes, got %d", o.Count())
	}
}

func TestEmpty(t *testing.T) {
	o := Empty()
	if o.Title != UntitledTitle || o.Outline == nil || o.Count() != 0 {
		t.Errorf("unexpected empty outline %+v", o)
	}
}

func TestLabeledLine_IsHeading(t *testing.T) {
	if (LabeledLine{Label: "body"}).IsHeading() {
		t.Error("expected body not to be a heading")
	}
	for _, l := range []string{"h1", "title", "sidebar", ""} {
		if !(LabeledLine{Label: l}).IsHeading() {
			t.Errorf("expected %q to be a heading", l)
		}
	}
}
