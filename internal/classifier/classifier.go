package classifier

import (
	"fmt"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Classifier maps feature vectors to heading labels. Implementations must be
// safe for concurrent use once constructed.
type Classifier interface {
	Predict(vectors []doctree.FeatureVector) ([]string, error)
}

// Func adapts a per-vector function into a Classifier.
type Func func(v doctree.FeatureVector) string

func (f Func) Predict(vectors []doctree.FeatureVector) ([]string, error) {
	out := make([]string, len(vectors))
	for i, v := range vectors {
		out[i] = f(v)
	}
	return out, nil
}

// Fixed returns a classifier that replays labels in order. It fails if asked
// for a different number of vectors.
func Fixed(labels ...string) Classifier {
	return fixed(labels)
}

type fixed []string

func (f fixed) Predict(vectors []doctree.FeatureVector) ([]string, error) {
	if len(vectors) != len(f) {
		return nil, fmt.Errorf("fixed classifier: have %d labels, got %d vectors", len(f), len(vectors))
	}
	out := make([]string, len(f))
	copy(out, f)
	return out, nil
}
