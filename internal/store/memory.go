package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"dispatchboard/internal/model"
)

// Memory is an in-memory store used when no database DSN is configured.
type Memory struct {
	mu    sync.RWMutex
	loads map[model.LoadID]model.Load
	order []model.LoadID // insertion order
}

func NewMemory() *Memory {
	return &Memory{loads: map[model.LoadID]model.Load{}}
}

func (m *Memory) ListLoads(ctx context.Context, f LoadFilter) ([]model.Load, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Load{}
	for _, id := range m.order {
		l := m.loads[id]
		if f.Match(l) {
			out = append(out, l)
		}
	}
	sortByPickup(out)
	return out, nil
}

func (m *Memory) GetLoad(ctx context.Context, id model.LoadID) (model.Load, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loads[id]
	if !ok {
		return model.Load{}, ErrNotFound
	}
	return l, nil
}

func (m *Memory) ImportLoads(ctx context.Context, loads []model.Load) (ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := ImportResult{ImportID: uuid.New().String()}
	for _, l := range loads {
		if l.ID == "" {
			l.ID = model.LoadID(uuid.New().String())
		}
		if _, ok := m.loads[l.ID]; ok {
			res.Updated++
		} else {
			m.order = append(m.order, l.ID)
			res.Created++
		}
		m.loads[l.ID] = l
	}
	return res, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

// sortByPickup orders loads by pickup date and time; undated loads go last.
func sortByPickup(loads []model.Load) {
	sort.SliceStable(loads, func(i, j int) bool {
		a, aok := loads[i].PickupAt()
		b, bok := loads[j].PickupAt()
		if aok != bok {
			return aok
		}
		return a.Before(b)
	})
}
