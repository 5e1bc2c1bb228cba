package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"dispatchboard/internal/flags"
	"dispatchboard/internal/model"
)

type flagsRequest struct {
	// Loads to evaluate; when empty the stored loads matching the query
	// filter are used.
	Loads      []model.Load      `json:"loads,omitempty"`
	Thresholds *model.Thresholds `json:"thresholds,omitempty"`
	// Today overrides the reference date for Not Closed (YYYY-MM-DD).
	Today string `json:"today,omitempty"`
}

// FlagsHandler handles POST /v1/flags.
func (s *Server) FlagsHandler(w http.ResponseWriter, r *http.Request) {
	var req flagsRequest
	if err := s.decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	p := principalFrom(r.Context())

	var th model.Thresholds
	if req.Thresholds != nil {
		if err := req.Thresholds.Validate(); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid thresholds", err.Error(), r.URL.Path)
			return
		}
		th = *req.Thresholds
	} else {
		th = s.thresholdsFor(r, p.User)
	}

	now := s.Now
	if req.Today != "" {
		d, ok := model.ParseDate(req.Today)
		if !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid today", "today must be YYYY-MM-DD", r.URL.Path)
			return
		}
		now = func() time.Time { return d }
	}

	loads := req.Loads
	if len(loads) == 0 {
		f, err := parseFilter(r.URL.Query())
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error(), r.URL.Path)
			return
		}
		if loads, err = s.Store.ListLoads(r.Context(), f); err != nil {
			writeStoreError(w, r, "List loads failed", err)
			return
		}
	}

	results := flags.NewEvaluator(loads, th, flags.WithClock(now)).ComputeAll()
	observeFlags(results)

	byID := make(map[model.LoadID]model.Load, len(loads))
	for _, l := range loads {
		byID[l.ID] = l
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results":    resultViews(p, results, byID),
		"summary":    flags.Summarize(results),
		"thresholds": th,
	})
}
