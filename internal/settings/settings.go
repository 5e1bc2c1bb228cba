// Package settings persists per-user flag thresholds.
package settings

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"dispatchboard/internal/model"
)

// Store keeps one Thresholds value per user.
type Store interface {
	// Get returns the user's saved thresholds; ok is false when none are saved.
	Get(ctx context.Context, userID string) (th model.Thresholds, ok bool, err error)
	Put(ctx context.Context, userID string, th model.Thresholds) error
	// Delete drops the user's saved thresholds; deleting nothing is not an error.
	Delete(ctx context.Context, userID string) error
}

// Effective returns the user's saved thresholds, or defaults when the user
// has saved none. Saved values with a zero good-move default inherit the
// default's good-move limits.
func Effective(ctx context.Context, s Store, userID string, defaults model.Thresholds) (model.Thresholds, error) {
	if s == nil || userID == "" {
		return defaults, nil
	}
	th, ok, err := s.Get(ctx, userID)
	if err != nil {
		return defaults, eris.Wrapf(err, "settings: get thresholds for %s", userID)
	}
	if !ok {
		return defaults, nil
	}
	if th.GoodMoveThresholds.Default == 0 && len(th.GoodMoveThresholds.ByContract) == 0 {
		th.GoodMoveThresholds = defaults.GoodMoveThresholds
	}
	return th, nil
}

// Memory is a process-local Store.
type Memory struct {
	mu sync.RWMutex
	m  map[string]model.Thresholds
}

func NewMemory() *Memory { return &Memory{m: map[string]model.Thresholds{}} }

func (s *Memory) Get(ctx context.Context, userID string) (model.Thresholds, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	th, ok := s.m[userID]
	return th, ok, nil
}

func (s *Memory) Put(ctx context.Context, userID string, th model.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.m[userID] = th
	s.mu.Unlock()
	return nil
}

func (s *Memory) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.m, userID)
	s.mu.Unlock()
	return nil
}
