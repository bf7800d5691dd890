package classifier

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// testArtifact scores purely on is_all_caps and has_number_prefix.
func testArtifact() Artifact {
	return Artifact{
		Kind:     KindLogisticRegression,
		Version:  "1",
		Features: append([]string(nil), doctree.Columns...),
		Classes:  []string{"body", "h1", "sidebar_note"},
		Coef: [][]float64{
			{0, 0, 0, 0, 0, 0},
			{0, 0, 2, 0, 0, 0},
			{0, 0, 0, 0, 3, 0},
		},
		Intercept: []float64{0.5, 0, 0},
	}
}

func writeArtifact(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_And_Predict(t *testing.T) {
	m, err := Load(writeArtifact(t, testArtifact()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Version() != "1" {
		t.Errorf("expected version %q, got %q", "1", m.Version())
	}

	got, err := m.Predict([]doctree.FeatureVector{
		{CharLen: 40, WordCount: 8},
		{CharLen: 10, IsAllCaps: 1},
		{CharLen: 10, HasNumberPrefix: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"body", "h1", "sidebar_note"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("vector %d: expected %q, got %q", i, w, got[i])
		}
	}
}

func TestPredict_TieGoesToFirstClass(t *testing.T) {
	a := testArtifact()
	a.Intercept = []float64{0, 0, 0}
	m, err := New(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := m.Predict([]doctree.FeatureVector{{}})
	if got[0] != "body" {
		t.Errorf("expected tie to resolve to %q, got %q", "body", got[0])
	}
}

func TestPredict_Binary(t *testing.T) {
	m, err := New(Artifact{
		Kind:      KindLogisticRegression,
		Version:   "1",
		Features:  append([]string(nil), doctree.Columns...),
		Classes:   []string{"body", "title"},
		Coef:      [][]float64{{0, 0, 1, 0, 0, 0}},
		Intercept: []float64{-0.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := m.Predict([]doctree.FeatureVector{{IsAllCaps: 1}, {}})
	if got[0] != "title" || got[1] != "body" {
		t.Errorf("expected [title body], got %v", got)
	}
}

func TestPredict_Empty(t *testing.T) {
	m, _ := New(testArtifact())
	got, err := m.Predict(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no labels, got %v", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrArtifact) {
		t.Fatalf("expected ErrArtifact, got %v", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{not json"},
		{"wrong kind", `{"kind":"random_forest","version":"1","features":[],"classes":["a","b"],"coef":[[1]],"intercept":[0]}`},
		{"missing classes", `{"kind":"logistic_regression","version":"1","features":[],"coef":[[1]],"intercept":[0]}`},
		{"string coef", `{"kind":"logistic_regression","version":"1","features":[],"classes":["a","b"],"coef":[["x"]],"intercept":[0]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); !errors.Is(err, ErrArtifact) {
				t.Errorf("expected ErrArtifact, got %v", err)
			}
		})
	}
}

func TestNew_RejectsBadShapes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
		substr string
	}{
		{"feature order", func(a *Artifact) { a.Features[0], a.Features[1] = a.Features[1], a.Features[0] }, "feature 0"},
		{"feature count", func(a *Artifact) { a.Features = a.Features[:5] }, "features"},
		{"coef rows", func(a *Artifact) { a.Coef = a.Coef[:2] }, "coefficient rows"},
		{"intercepts", func(a *Artifact) { a.Intercept = a.Intercept[:1] }, "intercepts"},
		{"row width", func(a *Artifact) { a.Coef[1] = []float64{1, 2} }, "row 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := testArtifact()
			tc.mutate(&a)
			_, err := New(a)
			if !errors.Is(err, ErrArtifact) {
				t.Fatalf("expected ErrArtifact, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.substr) {
				t.Errorf("expected error to mention %q, got %q", tc.substr, err)
			}
		})
	}
}

func TestFixed(t *testing.T) {
	c := Fixed("title", "body")
	got, err := c.Predict(make([]doctree.FeatureVector, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != "title" || got[1] != "body" {
		t.Errorf("expected [title body], got %v", got)
	}
	if _, err := c.Predict(make([]doctree.FeatureVector, 3)); err == nil {
		t.Error("expected error for mismatched vector count")
	}
}

func TestFunc(t *testing.T) {
	c := Func(func(v doctree.FeatureVector) string {
		if v.IsAllCaps == 1 {
			return "h1"
		}
		return "body"
	})
	got, _ := c.Predict([]doctree.FeatureVector{{IsAllCaps: 1}, {}})
	if got[0] != "h1" || got[1] != "body" {
		t.Errorf("expected [h1 body], got %v", got)
	}
}
