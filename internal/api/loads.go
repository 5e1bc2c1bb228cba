package api

import (
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"dispatchboard/internal/flags"
	"dispatchboard/internal/ingest"
	"dispatchboard/internal/metrics"
	"dispatchboard/internal/model"
	"dispatchboard/internal/settings"
	"dispatchboard/internal/store"
)

// ListLoadsHandler handles GET /v1/loads.
func (s *Server) ListLoadsHandler(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error(), r.URL.Path)
		return
	}
	loads, err := s.Store.ListLoads(r.Context(), f)
	if err != nil {
		writeStoreError(w, r, "List loads failed", err)
		return
	}
	p := principalFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"items": loadViews(p, loads), "count": len(loads)})
}

// GetLoadHandler handles GET /v1/loads/{id}.
func (s *Server) GetLoadHandler(w http.ResponseWriter, r *http.Request) {
	l, err := s.Store.GetLoad(r.Context(), model.LoadID(r.PathValue("id")))
	if err != nil {
		writeStoreError(w, r, "Get load failed", err)
		return
	}
	writeJSON(w, http.StatusOK, newLoadView(principalFrom(r.Context()), l))
}

// ImportLoadsHandler handles POST /v1/loads with a JSON body (array or
// {"loads": [...]}) or a text/csv spreadsheet export.
func (s *Server) ImportLoadsHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	if !canEdit(p) {
		writeProblem(w, http.StatusForbidden, "Forbidden", "import requires dispatcher, manager or admin", r.URL.Path)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxBodyBytes)

	format := "json"
	if ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && strings.HasSuffix(ct, "csv") {
		format = "csv"
	}
	var (
		loads []model.Load
		rep   ingest.Report
		err   error
	)
	if format == "csv" {
		loads, rep, err = ingest.DecodeCSV(r.Body)
	} else {
		loads, rep, err = ingest.DecodeJSON(r.Body)
	}
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid loads", err.Error(), r.URL.Path)
		return
	}
	if len(loads) == 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid loads", "no loads in body", r.URL.Path)
		return
	}
	res, err := s.Store.ImportLoads(r.Context(), loads)
	if err != nil {
		writeStoreError(w, r, "Import loads failed", err)
		return
	}
	metrics.LoadsImported.WithLabelValues(format).Add(float64(len(loads)))
	if rep.Skipped > 0 {
		metrics.RowsSkipped.WithLabelValues("import").Add(float64(rep.Skipped))
	}
	zap.L().Info("loads imported",
		zap.String("user", p.User),
		zap.String("importId", res.ImportID),
		zap.String("format", format),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", rep.Skipped),
	)
	s.Broker.Publish(TopicRefresh, Event{Type: "loads.imported", Data: map[string]any{
		"importId": res.ImportID,
		"created":  res.Created,
		"updated":  res.Updated,
		"by":       p.User,
	}})
	writeJSON(w, http.StatusCreated, map[string]any{
		"importId": res.ImportID,
		"created":  res.Created,
		"updated":  res.Updated,
		"rows":     rep.Rows,
		"skipped":  rep.Skipped,
	})
}

// LoadFlagsHandler handles GET /v1/loads/{id}/flags; the load is judged
// against the full stored history.
func (s *Server) LoadFlagsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l, err := s.Store.GetLoad(ctx, model.LoadID(r.PathValue("id")))
	if err != nil {
		writeStoreError(w, r, "Get load failed", err)
		return
	}
	all, err := s.Store.ListLoads(ctx, store.LoadFilter{})
	if err != nil {
		writeStoreError(w, r, "List loads failed", err)
		return
	}
	p := principalFrom(ctx)
	th := s.thresholdsFor(r, p.User)
	set := flags.NewEvaluator(all, th, flags.WithClock(s.Now)).Compute(l)
	observeFlags([]flags.Result{{ID: l.ID, Flags: set}})

	res := resultView{Result: flags.Result{ID: l.ID, RPM: l.RPM(), Flags: set}}
	if canViewLoad(p, l) {
		rpm := l.RPM()
		res.RPM = &rpm
	}
	writeJSON(w, http.StatusOK, res)
}

// thresholdsFor resolves the user's effective thresholds. A settings backend
// failure degrades to the server defaults.
func (s *Server) thresholdsFor(r *http.Request, user string) model.Thresholds {
	th, err := settings.Effective(r.Context(), s.Settings, user, s.Defaults)
	if err != nil {
		zap.L().Warn("settings lookup failed, using defaults", zap.String("user", user), zap.Error(err))
	}
	return th
}

func observeFlags(results []flags.Result) {
	metrics.LoadsEvaluated.Add(float64(len(results)))
	for _, r := range results {
		for f := range r.Flags {
			metrics.FlagsRaised.WithLabelValues(string(f)).Inc()
		}
	}
}
