package api

import "net/http"

func (s *Server) handleTranslateStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "translation disabled", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": s.cfg.TranslateProvider,
		"target":   s.cfg.TranslateTarget,
		"stats":    s.stats.Snapshot(),
	})
}
