package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dispatchboard/internal/model"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "dev", cfg.Auth.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1.0, cfg.Cluster.GridSize)
	assert.Equal(t, "inbound", cfg.Cluster.Direction)
	assert.Equal(t, model.DefaultThresholds(), cfg.Thresholds)
}

func TestLoadFromYAML(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
server:
  port: 9090
log:
  format: console
thresholds:
  moved_load_threshold: 450
  good_move_thresholds:
    default: 4000
    by_contract:
      OO: 6000
cluster:
  grid_size: 0.5
  direction: outbound
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 450.0, cfg.Thresholds.MovedLoadThreshold)
	assert.Equal(t, 4000.0, cfg.Thresholds.GoodMoveThresholds.Default)
	assert.Equal(t, 6000.0, cfg.Thresholds.GoodMoveThresholds.For("oo"))
	// Defaults still apply for unset values
	assert.Equal(t, 1.65, cfg.Thresholds.LowRPMThreshold)
	assert.Equal(t, 0.5, cfg.Cluster.GridSize)
}

func TestLoadEnvOverrides(t *testing.T) {
	inTempDir(t)

	t.Setenv("DISPATCH_SERVER_PORT", "3000")
	t.Setenv("DISPATCH_STORE_DRIVER", "postgres")
	t.Setenv("DISPATCH_STORE_DATABASE_URL", "postgres://localhost/dispatch")
	t.Setenv("DISPATCH_THRESHOLDS_LOW_RPM_THRESHOLD", "1.9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/dispatch", cfg.Store.DatabaseURL)
	assert.Equal(t, 1.9, cfg.Thresholds.LowRPMThreshold)
}

func TestLoadRejectsInvalid(t *testing.T) {
	inTempDir(t)

	t.Setenv("DISPATCH_STORE_DRIVER", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:      StoreConfig{Driver: "memory"},
			Thresholds: model.DefaultThresholds(),
			Cluster:    ClusterConfig{GridSize: 1, Direction: "inbound"},
		}
	}
	require.NoError(t, valid().Validate())

	c := valid()
	c.Store.Driver = "sqlite"
	assert.Error(t, c.Validate())

	c = valid()
	c.Cluster.GridSize = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Cluster.GridSize = 1e-300
	assert.Error(t, c.Validate())

	c = valid()
	c.Cluster.Direction = "sideways"
	assert.Error(t, c.Validate())

	c = valid()
	c.Thresholds.NotClosedDaysThreshold = -1
	assert.Error(t, c.Validate())

	c = valid()
	c.Webhooks.URLs = []string{"https://hooks.example.com/dispatch"}
	assert.NoError(t, c.Validate())
	c.Webhooks.URLs = append(c.Webhooks.URLs, "ftp://nope")
	assert.Error(t, c.Validate())
}

func TestLoadWebhooksFromEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("DISPATCH_WEBHOOKS_URLS", "http://a.example/h,http://b.example/h")
	t.Setenv("DISPATCH_WEBHOOKS_SECRET", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.example/h", "http://b.example/h"}, cfg.Webhooks.URLs)
	assert.Equal(t, "k", cfg.Webhooks.Secret)
	assert.Equal(t, 10, cfg.Webhooks.MaxAttempts)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
