package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrArtifact reports a classifier artifact that is missing or unusable.
// It is not retryable.
var ErrArtifact = errors.New("classifier artifact")

// KindLogisticRegression is the only artifact kind understood by Load.
const KindLogisticRegression = "logistic_regression"

// Artifact is the serialized form of a trained linear classifier.
type Artifact struct {
	Kind      string      `json:"kind"`
	Version   string      `json:"version"`
	Features  []string    `json:"features"`
	Classes   []string    `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

const artifactSchema = `{
  "type": "object",
  "required": ["kind", "version", "features", "classes", "coef", "intercept"],
  "properties": {
    "kind": {"const": "logistic_regression"},
    "version": {"type": "string", "minLength": 1},
    "features": {"type": "array", "items": {"type": "string"}},
    "classes": {"type": "array", "minItems": 2, "items": {"type": "string", "minLength": 1}},
    "coef": {"type": "array", "minItems": 1, "items": {"type": "array", "items": {"type": "number"}}},
    "intercept": {"type": "array", "minItems": 1, "items": {"type": "number"}}
  }
}`

var compiledSchema = jsonschema.MustCompileString("artifact.schema.json", artifactSchema)

// Model is a loaded logistic-regression classifier. It is read-only after Load.
type Model struct {
	artifact Artifact
	binary   bool
}

// Load reads and validates an artifact from disk.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrArtifact, path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse validates artifact bytes and builds a Model.
func Parse(data []byte) (*Model, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrArtifact, err)
	}
	if err := compiledSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: schema: %v", ErrArtifact, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrArtifact, err)
	}
	return New(a)
}

// New checks an in-memory artifact and builds a Model.
func New(a Artifact) (*Model, error) {
	if len(a.Features) != len(doctree.Columns) {
		return nil, fmt.Errorf("%w: expected %d features, got %d", ErrArtifact, len(doctree.Columns), len(a.Features))
	}
	for i, name := range doctree.Columns {
		if a.Features[i] != name {
			return nil, fmt.Errorf("%w: feature %d: expected %q, got %q", ErrArtifact, i, name, a.Features[i])
		}
	}
	if len(a.Classes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 classes, got %d", ErrArtifact, len(a.Classes))
	}

	binary := len(a.Classes) == 2 && len(a.Coef) == 1
	rows := len(a.Classes)
	if binary {
		rows = 1
	}
	if len(a.Coef) != rows {
		return nil, fmt.Errorf("%w: expected %d coefficient rows, got %d", ErrArtifact, rows, len(a.Coef))
	}
	if len(a.Intercept) != rows {
		return nil, fmt.Errorf("%w: expected %d intercepts, got %d", ErrArtifact, rows, len(a.Intercept))
	}
	for k, row := range a.Coef {
		if len(row) != len(a.Features) {
			return nil, fmt.Errorf("%w: coefficient row %d has %d values, expected %d", ErrArtifact, k, len(row), len(a.Features))
		}
	}
	return &Model{artifact: a, binary: binary}, nil
}

// Classes returns the label set the model was trained on.
func (m *Model) Classes() []string {
	out := make([]string, len(m.artifact.Classes))
	copy(out, m.artifact.Classes)
	return out
}

// Version returns the artifact version string.
func (m *Model) Version() string {
	return m.artifact.Version
}

// Predict returns the highest-scoring class for each vector.
func (m *Model) Predict(vectors []doctree.FeatureVector) ([]string, error) {
	out := make([]string, len(vectors))
	for i, v := range vectors {
		out[i] = m.predictOne(v.Row())
	}
	return out, nil
}

func (m *Model) predictOne(x []float64) string {
	a := m.artifact
	if m.binary {
		if dot(a.Coef[0], x)+a.Intercept[0] > 0 {
			return a.Classes[1]
		}
		return a.Classes[0]
	}
	best := 0
	bestScore := dot(a.Coef[0], x) + a.Intercept[0]
	for k := 1; k < len(a.Coef); k++ {
		if s := dot(a.Coef[k], x) + a.Intercept[k]; s > bestScore {
			best, bestScore = k, s
		}
	}
	return a.Classes[best]
}

func dot(w, x []float64) float64 {
	var s float64
	for i := range w {
		s += w[i] * x[i]
	}
	return s
}
