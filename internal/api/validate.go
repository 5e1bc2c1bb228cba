package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dispatchboard/internal/cluster"
	"dispatchboard/internal/model"
	"dispatchboard/internal/store"
)

func parseFilter(q url.Values) (store.LoadFilter, error) {
	f := store.LoadFilter{
		Driver:     strings.TrimSpace(q.Get("driver")),
		Dispatcher: strings.TrimSpace(q.Get("dispatcher")),
		Team:       strings.TrimSpace(q.Get("team")),
	}
	var err error
	if v := q.Get("from"); v != "" {
		if f.From, err = parseDay(v); err != nil {
			return f, fmt.Errorf("invalid from: %w", err)
		}
	}
	if v := q.Get("to"); v != "" {
		if f.To, err = parseDay(v); err != nil {
			return f, fmt.Errorf("invalid to: %w", err)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("to must not be before from")
	}
	return f, nil
}

func parseDay(s string) (time.Time, error) {
	t, ok := model.ParseDate(s)
	if !ok {
		return time.Time{}, fmt.Errorf("%q is not a date (YYYY-MM-DD)", s)
	}
	return t, nil
}

// parseGrid returns def when s is empty.
func parseGrid(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	g, err := strconv.ParseFloat(s, 64)
	if err != nil || !cluster.ValidGridSize(g) {
		return 0, fmt.Errorf("grid must be a number in [%g, %g]", cluster.MinGridSize, cluster.MaxGridSize)
	}
	return g, nil
}

func parseDirectionParam(s string, def model.Direction) (model.Direction, error) {
	if s == "" {
		return def, nil
	}
	return model.ParseDirection(s)
}

func parseFormat(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return "json", nil
	case "geojson":
		return "geojson", nil
	}
	return "", fmt.Errorf("invalid format: %q (allowed: json, geojson)", s)
}
