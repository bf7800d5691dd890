package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleStoredOutline reads an outline back from the configured sink.
func (s *Server) handleStoredOutline(w http.ResponseWriter, r *http.Request) {
	sink := s.orchestrator.Sink()
	if sink == nil {
		jsonError(w, "outline storage not configured", http.StatusNotImplemented)
		return
	}
	docID := chi.URLParam(r, "docID")
	o, err := sink.LoadOutline(r.Context(), docID)
	if err != nil {
		s.log.Error("load outline failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to load outline: "+err.Error(), http.StatusBadGateway)
		return
	}
	if o == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	o.WriteJSON(w)
}

// handleDeleteDocument removes a stored outline and its hash index entry.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	sink := s.orchestrator.Sink()
	if sink == nil {
		jsonError(w, "outline storage not configured", http.StatusNotImplemented)
		return
	}
	docID := chi.URLParam(r, "docID")
	if err := sink.DeleteOutline(r.Context(), docID); err != nil {
		s.log.Error("delete outline failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to delete outline: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}
