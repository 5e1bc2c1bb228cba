package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"dispatchboard/internal/model"
)

// Store is the load repository used by the API server and the CLI.
type Store interface {
	// ListLoads returns loads matching the filter in pickup order.
	ListLoads(ctx context.Context, f LoadFilter) ([]model.Load, error)
	GetLoad(ctx context.Context, id model.LoadID) (model.Load, error)
	// ImportLoads upserts loads by id. Loads without an id get a fresh one.
	ImportLoads(ctx context.Context, loads []model.Load) (ImportResult, error)
	Ping(ctx context.Context) error
}

// LoadFilter narrows ListLoads. Zero values match everything; From and To
// bound the pickup date inclusively.
type LoadFilter struct {
	From       time.Time
	To         time.Time
	Driver     string
	Dispatcher string
	Team       string
}

// Match reports whether l passes the filter.
func (f LoadFilter) Match(l model.Load) bool {
	if !f.From.IsZero() || !f.To.IsZero() {
		pu, ok := l.PickupDate()
		if !ok {
			return false
		}
		if !f.From.IsZero() && pu.Before(civil(f.From)) {
			return false
		}
		if !f.To.IsZero() && pu.After(civil(f.To)) {
			return false
		}
	}
	if f.Driver != "" && !strings.EqualFold(strings.TrimSpace(l.Driver), f.Driver) {
		return false
	}
	if f.Dispatcher != "" && !strings.EqualFold(strings.TrimSpace(l.Dispatcher), f.Dispatcher) {
		return false
	}
	if f.Team != "" && !strings.EqualFold(strings.TrimSpace(l.Team), f.Team) {
		return false
	}
	return true
}

// ImportResult reports the outcome of an import batch.
type ImportResult struct {
	ImportID string `json:"importId"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
}

var ErrNotFound = errors.New("not found")

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
