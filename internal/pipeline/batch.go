package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Document is one named unit of batch work.
type Document struct {
	Name  string
	Lines []doctree.Line
}

// DocResult is the outcome for one document. Exactly one of Result and Err
// is set.
type DocResult struct {
	Name   string
	Result *Result
	Err    error
}

// BatchReport lists results in input order.
type BatchReport struct {
	Results   []DocResult
	Succeeded int
	Failed    int
}

// RunBatch outlines documents concurrently, at most concurrency at a time.
// A failing document is recorded and never stops the others. ctx is checked
// before each document starts; a document already running finishes.
func (e *Engine) RunBatch(ctx context.Context, docs []Document, concurrency int) BatchReport {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]DocResult, len(docs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, doc := range docs {
		results[i].Name = doc.Name
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i].Err = fmt.Errorf("document %q: %w", doc.Name, ctx.Err())
			continue
		}
		if err := ctx.Err(); err != nil {
			<-sem
			results[i].Err = fmt.Errorf("document %q: %w", doc.Name, err)
			continue
		}

		wg.Add(1)
		go func(i int, doc Document) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := e.Outline(ctx, doc.Name, doc.Lines)
			if err != nil {
				e.logger().Error("document failed", "document", doc.Name, "error", err)
				results[i].Err = fmt.Errorf("document %q: %w", doc.Name, err)
				return
			}
			results[i].Result = res
		}(i, doc)
	}
	wg.Wait()

	report := BatchReport{Results: results}
	for _, r := range results {
		if r.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	return report
}
