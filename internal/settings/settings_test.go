package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchboard/internal/model"
)

type failing struct{}

func (failing) Get(context.Context, string) (model.Thresholds, bool, error) {
	return model.Thresholds{}, false, errors.New("down")
}
func (failing) Put(context.Context, string, model.Thresholds) error { return errors.New("down") }
func (failing) Delete(context.Context, string) error { return errors.New("down") }

func TestEffectiveFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	defs := model.DefaultThresholds()
	s := NewMemory()

	got, err := Effective(ctx, s, "u1", defs)
	require.NoError(t, err)
	assert.Equal(t, defs, got)

	got, err = Effective(ctx, s, "", defs)
	require.NoError(t, err)
	assert.Equal(t, defs, got)

	got, err = Effective(ctx, failing{}, "u1", defs)
	require.Error(t, err)
	assert.Equal(t, defs, got)
}

func TestMemoryRoundTripPerUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	custom := model.Thresholds{MovedLoadThreshold: 450, NotClosedDaysThreshold: 3, LowRPMThreshold: 2}
	require.NoError(t, s.Put(ctx, "u1", custom))

	got, err := Effective(ctx, s, "u1", model.DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, 450.0, got.MovedLoadThreshold)
	assert.Equal(t, 5000.0, got.GoodMoveThresholds.Default, "inherits good-move defaults")

	_, ok, err := s.Get(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, "u1"))
	require.NoError(t, s.Delete(ctx, "u1"))
	_, ok, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRejectsInvalid(t *testing.T) {
	err := NewMemory().Put(context.Background(), "u1", model.Thresholds{LowRPMThreshold: -1})
	assert.Error(t, err)
}
