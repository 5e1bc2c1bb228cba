package api

import (
	"net/http"
	"strconv"

	"dispatchboard/internal/cluster"
	"dispatchboard/internal/metrics"
)

// ClustersHandler handles GET /v1/clusters?grid&direction&format plus the
// load filter parameters.
func (s *Server) ClustersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	grid, err := parseGrid(q.Get("grid"), s.GridSize)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid grid", err.Error(), r.URL.Path)
		return
	}
	dir, err := parseDirectionParam(q.Get("direction"), s.Direction)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid direction", err.Error(), r.URL.Path)
		return
	}
	format, err := parseFormat(q.Get("format"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid format", err.Error(), r.URL.Path)
		return
	}
	f, err := parseFilter(q)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error(), r.URL.Path)
		return
	}
	loads, err := s.Store.ListLoads(r.Context(), f)
	if err != nil {
		writeStoreError(w, r, "List loads failed", err)
		return
	}

	res := cluster.Aggregate(loads, grid, dir)
	metrics.ClustersBuilt.WithLabelValues("grid").Observe(float64(len(res.Clusters)))
	metrics.RowsSkipped.WithLabelValues("cluster").Add(float64(res.Diagnostics.Skipped))
	w.Header().Set("X-Skipped-Loads", strconv.Itoa(res.Diagnostics.Skipped))

	p := principalFrom(r.Context())
	if format == "geojson" {
		fc := cluster.FeatureCollection(res.Clusters, func(c cluster.Summary) bool {
			return p.CanViewAny(c.Teams, c.Dispatchers)
		})
		w.Header().Set("Content-Type", "application/geo+json")
		b, err := fc.MarshalJSON()
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "GeoJSON encoding failed", err.Error(), r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"grid":        grid,
		"direction":   dir,
		"clusters":    clusterViews(p, res.Clusters),
		"diagnostics": res.Diagnostics,
	})
}

// StatesHandler handles GET /v1/states?direction plus the load filter.
func (s *Server) StatesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dir, err := parseDirectionParam(q.Get("direction"), s.Direction)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid direction", err.Error(), r.URL.Path)
		return
	}
	f, err := parseFilter(q)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error(), r.URL.Path)
		return
	}
	loads, err := s.Store.ListLoads(r.Context(), f)
	if err != nil {
		writeStoreError(w, r, "List loads failed", err)
		return
	}
	states, diag := cluster.AggregateByStateWithDiagnostics(loads, dir)
	metrics.ClustersBuilt.WithLabelValues("state").Observe(float64(len(states)))
	metrics.RowsSkipped.WithLabelValues("state").Add(float64(diag.Skipped))

	writeJSON(w, http.StatusOK, map[string]any{
		"direction":   dir,
		"states":      stateViews(principalFrom(r.Context()), states),
		"diagnostics": diag,
	})
}
