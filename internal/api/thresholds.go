package api

import (
	"net/http"

	"dispatchboard/internal/model"
	"dispatchboard/internal/settings"
)

// GetThresholdsHandler handles GET /v1/settings/thresholds and returns the
// caller's effective thresholds.
func (s *Server) GetThresholdsHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	_, saved, err := s.Settings.Get(r.Context(), p.User)
	if err != nil {
		writeStoreError(w, r, "Get settings failed", err)
		return
	}
	th, err := settings.Effective(r.Context(), s.Settings, p.User, s.Defaults)
	if err != nil {
		writeStoreError(w, r, "Get settings failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"thresholds": th, "saved": saved})
}

// PutThresholdsHandler handles PUT /v1/settings/thresholds.
func (s *Server) PutThresholdsHandler(w http.ResponseWriter, r *http.Request) {
	var th model.Thresholds
	if err := s.decodeJSON(w, r, &th); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := th.Validate(); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid thresholds", err.Error(), r.URL.Path)
		return
	}
	p := principalFrom(r.Context())
	if err := s.Settings.Put(r.Context(), p.User, th); err != nil {
		writeStoreError(w, r, "Save settings failed", err)
		return
	}
	s.Broker.Publish(TopicRefresh, Event{Type: "settings.updated", Data: map[string]any{"user": p.User}})
	writeJSON(w, http.StatusOK, map[string]any{"thresholds": th, "saved": true})
}

// ResetThresholdsHandler handles DELETE /v1/settings/thresholds, reverting
// the caller to the server defaults.
func (s *Server) ResetThresholdsHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	if err := s.Settings.Delete(r.Context(), p.User); err != nil {
		writeStoreError(w, r, "Reset settings failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
