// Package pipeline runs documents through feature extraction, classification,
// translation and outline assembly, either one at a time, as a bounded batch,
// or through the job orchestrator behind the HTTP API.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docoutline/internal/classifier"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/features"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/translate"
)

// ErrLabelCount is returned when a classifier yields a different number of
// labels than it was given lines.
var ErrLabelCount = errors.New("classifier label count mismatch")

// Engine holds the shared, read-only collaborators. It is safe to use from
// multiple goroutines as long as its Classifier and Translator are.
type Engine struct {
	Classifier classifier.Classifier
	Translator translate.Translator
	Log        *slog.Logger
}

// Result is the outcome of outlining one document.
type Result struct {
	Outline *doctree.Outline      `json:"outline"`
	Lines   []doctree.LabeledLine `json:"lines"`
}

// Outline runs the full pipeline over one document's lines.
func (e *Engine) Outline(ctx context.Context, name string, lines []doctree.Line) (*Result, error) {
	labeled, err := e.Classify(lines)
	if err != nil {
		return nil, err
	}
	headings := e.Translate(ctx, labeled)
	o := outline.Build(headings)
	e.logger().Debug("outline built", "document", name, "lines", len(lines), "headings", len(headings))
	return &Result{Outline: o, Lines: labeled}, nil
}

// Classify validates lines, computes their features and attaches one label
// per line. Empty input never reaches the classifier.
func (e *Engine) Classify(lines []doctree.Line) ([]doctree.LabeledLine, error) {
	if err := doctree.ValidateLines(lines); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []doctree.LabeledLine{}, nil
	}

	vectors, err := features.Extract(lines)
	if err != nil {
		return nil, err
	}
	labels, err := e.Classifier.Predict(vectors)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if len(labels) != len(lines) {
		return nil, fmt.Errorf("%w: %d labels for %d lines", ErrLabelCount, len(labels), len(lines))
	}

	out := make([]doctree.LabeledLine, len(lines))
	for i := range lines {
		out[i] = doctree.LabeledLine{Line: lines[i], Features: vectors[i], Label: labels[i]}
	}
	return out, nil
}

// Translate returns the heading lines, in order, with their text passed
// through the translator. The input slice is not modified.
func (e *Engine) Translate(ctx context.Context, labeled []doctree.LabeledLine) []doctree.LabeledLine {
	headings := make([]doctree.LabeledLine, 0, len(labeled))
	for _, l := range labeled {
		if !l.IsHeading() {
			continue
		}
		l.Text = translate.Apply(ctx, e.Translator, l.Text, e.logger())
		headings = append(headings, l)
	}
	return headings
}

func (e *Engine) logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}
