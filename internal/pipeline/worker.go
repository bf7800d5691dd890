package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
)

// Worker processes a single document job.
type Worker struct {
	engine *Engine
	sink   Sink
	opts   parser.Options
	log    *slog.Logger
}

func NewWorker(engine *Engine, sink Sink, opts parser.Options, log *slog.Logger) *Worker {
	return &Worker{engine: engine, sink: sink, opts: opts, log: log}
}

// Process runs the full outline pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "document", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.opts)
	if err != nil {
		w.fail(log, job, "parsing", err)
		return
	}
	lines, err := p.ParseLines(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		w.fail(log, job, "parsing", fmt.Errorf("parse: %w", err))
		return
	}
	job.setHash(ContentHashHex([]byte(joinText(lines))))

	// Phase 1.5: Dedup check
	if w.sink != nil {
		existing, err := w.sink.FindByHash(ctx, job.ContentHash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if existing != "" && existing != job.DocID {
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.markDuplicate(existing)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Classify
	job.SetStatus(StatusClassifying, "classifying")
	labeled, err := w.engine.Classify(lines)
	if err != nil {
		w.fail(log, job, "classifying", err)
		return
	}

	// Phase 3: Translate headings
	job.SetStatus(StatusTranslating, "translating")
	headings := w.engine.Translate(ctx, labeled)

	// Phase 4: Build
	job.SetStatus(StatusBuilding, "building")
	result := &Result{Outline: outline.Build(headings), Lines: labeled}
	job.SetCounts(len(lines), len(headings))
	log.Info("outline built", "lines", len(lines), "headings", len(headings))

	// Phase 5: Store
	if w.sink != nil {
		job.SetStatus(StatusStoring, "storing")
		if err := w.sink.SaveOutline(ctx, job.DocID, job.ContentHash, job.Filename, result.Outline); err != nil {
			job.SetResult(result)
			w.fail(log, job, "storing", fmt.Errorf("store: %w", err))
			return
		}
	}

	job.SetResult(result)
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("job failed", "phase", phase, "error", err)
	job.AddError(fmt.Sprintf("document %q: %s", job.Filename, err))
	job.SetStatus(StatusFailed, phase)
}

// joinText flattens line text for content hashing.
func joinText(lines []doctree.Line) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}
