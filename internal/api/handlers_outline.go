package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/export"
	"github.com/dgallion1/docoutline/internal/features"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}

	job, status, err := s.submitFile(files[0], r.FormValue("doc_id"))
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusAccepted, jobAccepted(job))
}

func (s *Server) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		job, _, err := s.submitFile(fh, "")
		if err != nil {
			results = append(results, map[string]any{
				"filename": sanitizeFilename(fh.Filename),
				"error":    err.Error(),
			})
			continue
		}
		results = append(results, jobAccepted(job))
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

// submitFile reads one upload and queues it. On failure it returns the HTTP
// status that fits the cause.
func (s *Server) submitFile(fh *multipart.FileHeader, docID string) (*pipeline.Job, int, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return nil, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to open file")
	}
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	f.Close()
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}

	if docID == "" {
		docID = pipeline.ContentHashHex(data)[:16]
	}
	job := pipeline.NewJob(uuid.NewString(), docID, filename, data)
	if err := s.orchestrator.Submit(job); err != nil {
		return nil, http.StatusServiceUnavailable, err
	}
	return job, http.StatusAccepted, nil
}

func jobAccepted(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"filename": snap.Filename,
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/outline/%s/status", snap.ID),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()

	var o *doctree.Outline
	switch {
	case snap.Status == pipeline.StatusCompleted:
		o = job.Result().Outline
	case snap.Status == pipeline.StatusDupSkipped && s.orchestrator.Sink() != nil:
		stored, err := s.orchestrator.Sink().LoadOutline(r.Context(), snap.DuplicateOf)
		if err != nil || stored == nil {
			jsonError(w, "duplicate of "+snap.DuplicateOf+", stored outline unavailable", http.StatusConflict)
			return
		}
		o = stored
	default:
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "outline not ready",
			"status": snap.Status,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	o.WriteJSON(w)
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	res := job.Result()
	if res == nil {
		jsonError(w, "predictions not ready", http.StatusConflict)
		return
	}

	base := strings.TrimSuffix(job.Filename, filepath.Ext(job.Filename))
	switch format := strings.ToLower(r.URL.Query().Get("format")); format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_predictions.csv"`, base))
		if err := export.WriteCSV(w, res.Lines); err != nil {
			s.log.Error("write csv failed", "job_id", job.ID, "error", err)
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_predictions.xlsx"`, base))
		if err := export.WriteXLSX(w, res.Lines); err != nil {
			s.log.Error("write xlsx failed", "job_id", job.ID, "error", err)
		}
	default:
		jsonError(w, "format must be csv or xlsx", http.StatusBadRequest)
	}
}

type linesRequest struct {
	Name  string         `json:"name"`
	Lines []doctree.Line `json:"lines"`
}

// handleLines outlines pre-extracted lines synchronously. With
// ?include_lines=true the labeled lines are returned next to the outline.
func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req linesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" && strings.HasSuffix(typeErr.Field, "text") {
			err = fmt.Errorf("%w: %s", features.ErrNonText, typeErr.Field)
		}
		jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Lines == nil {
		req.Lines = []doctree.Line{}
	}
	name := req.Name
	if name == "" {
		name = "request"
	}

	res, err := s.orchestrator.Engine().Outline(r.Context(), name, req.Lines)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, doctree.ErrInvalidLine) || errors.Is(err, features.ErrNonText) {
			code = http.StatusBadRequest
		}
		s.log.Error("outline failed", "document", name, "error", err)
		jsonError(w, fmt.Sprintf("document %q: %s", name, err), code)
		return
	}

	if r.URL.Query().Get("include_lines") == "true" {
		writeJSON(w, http.StatusOK, res)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	res.Outline.WriteJSON(w)
}

func sanitizeFilename(name string) string {
	// Keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
