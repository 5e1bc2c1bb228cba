package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchboard/internal/api"
	"dispatchboard/internal/config"
	"dispatchboard/internal/flags"
	"dispatchboard/internal/model"
	"dispatchboard/internal/webhooks"
)

func withConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	cfg = &config.Config{Thresholds: model.DefaultThresholds()}
	cfg.Thresholds.GoodMoveThresholds.ByContract = map[string]float64{"oo": 7000}
	cfg.Cluster = config.ClusterConfig{GridSize: 1, Direction: "inbound"}
	t.Cleanup(func() { cfg = prev })
}

func TestReadThresholdsOverlaysConfig(t *testing.T) {
	withConfig(t)
	path := filepath.Join(t.TempDir(), "t.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lowRpmThreshold: 2.1\ngoodMoveThresholds:\n  by_contract:\n    lease: 4000\n"), 0o600))

	th, err := readThresholds(path)
	require.NoError(t, err)
	assert.Equal(t, 2.1, th.LowRPMThreshold)
	assert.Equal(t, 600.0, th.MovedLoadThreshold)
	assert.Equal(t, 5000.0, th.GoodMoveThresholds.Default)
	assert.Equal(t, 4000.0, th.GoodMoveThresholds.For("LEASE"))
	assert.Equal(t, 7000.0, th.GoodMoveThresholds.For("oo"))
	assert.NotContains(t, cfg.Thresholds.GoodMoveThresholds.ByContract, "lease", "config thresholds must not be mutated")
}

func TestReadThresholdsRejectsNegative(t *testing.T) {
	withConfig(t)
	path := filepath.Join(t.TempDir(), "t.yaml")
	require.NoError(t, os.WriteFile(path, []byte("notClosedDaysThreshold: -3\n"), 0o600))
	_, err := readThresholds(path)
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	loads := []model.Load{
		{ID: "1", Driver: "Ann", Team: "Red", DoLocation: "Atlanta, GA", DoLatitude: model.NewCoord(33.7), DoLongitude: model.NewCoord(-84.4), Price: 100, TripMiles: 100},
		{ID: "2", Driver: "Bob", Team: "Blue", DoLocation: "Boise, ID"},
	}
	today := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	out, err := analyze(loads, model.DefaultThresholds(), 1, model.Inbound, flags.WithClock(func() time.Time { return today }))
	require.NoError(t, err)

	require.Len(t, out.Results, 2)
	assert.True(t, out.Results[0].Flags.Has(model.FlagLowRPM))
	assert.Equal(t, 1, out.Summary.Counts[model.FlagLowRPM])
	require.Len(t, out.Clusters.Clusters, 1)
	assert.Equal(t, 1, out.Clusters.Diagnostics.Skipped)
	assert.Len(t, out.States, 2)

	var buf bytes.Buffer
	require.NoError(t, writeAnalysis(&buf, out))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "summary")
	assert.Contains(t, doc, "clusters")

	_, err = analyze(loads, model.DefaultThresholds(), 0, model.Inbound)
	assert.Error(t, err)
	_, err = analyze(loads, model.DefaultThresholds(), 1e-300, model.Inbound)
	assert.Error(t, err)
}

func TestStartWebhooksForwardsRefreshEvents(t *testing.T) {
	withConfig(t)
	cfg.Webhooks = webhooks.Config{URLs: []string{"http://127.0.0.1:1/hook"}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := api.NewBroker()
	w := startWebhooks(ctx, broker)
	broker.Publish(api.TopicRefresh, api.Event{Type: "loads.imported"})
	assert.Eventually(t, func() bool { return w.Pending() == 1 }, time.Second, 10*time.Millisecond)
}
