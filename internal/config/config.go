// Package config loads service configuration from config.yaml and
// DISPATCH_* environment variables, and builds the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dispatchboard/internal/auth"
	"dispatchboard/internal/cluster"
	"dispatchboard/internal/model"
	"dispatchboard/internal/webhooks"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Auth       auth.Config      `yaml:"auth" mapstructure:"auth"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Thresholds model.Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
	Cluster    ClusterConfig    `yaml:"cluster" mapstructure:"cluster"`
	Webhooks   webhooks.Config  `yaml:"webhooks" mapstructure:"webhooks"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int     `yaml:"port" mapstructure:"port"`
	ReadTimeoutSecs int     `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	MaxBodyBytes    int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RateLimitRPS    float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// StoreConfig configures the load repository.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // memory or postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	AutoMigrate bool   `yaml:"auto_migrate" mapstructure:"auto_migrate"`
}

// RedisConfig enables Redis-backed settings and refresh fan-out when URL is set.
type RedisConfig struct {
	URL              string `yaml:"url" mapstructure:"url"`
	KeyPrefix        string `yaml:"key_prefix" mapstructure:"key_prefix"`
	SettingsTTLHours int    `yaml:"settings_ttl_hours" mapstructure:"settings_ttl_hours"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ClusterConfig holds map aggregation defaults.
type ClusterConfig struct {
	GridSize  float64 `yaml:"grid_size" mapstructure:"grid_size"`
	Direction string  `yaml:"direction" mapstructure:"direction"`
}

// Load reads config.yaml (optional) from the working directory, then applies
// DISPATCH_* environment overrides, e.g. DISPATCH_STORE_DATABASE_URL.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DISPATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := model.DefaultThresholds()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_secs", 15)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("store.auto_migrate", true)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.key_prefix", "dispatchboard")
	v.SetDefault("redis.settings_ttl_hours", 0)
	v.SetDefault("auth.mode", "dev")
	v.SetDefault("auth.hmac_secret", "")
	v.SetDefault("auth.jwks_url", "")
	v.SetDefault("auth.user_claim", "sub")
	v.SetDefault("auth.name_claim", "name")
	v.SetDefault("auth.role_claim", "role")
	v.SetDefault("auth.teams_claim", "teams")
	v.SetDefault("auth.dispatchers_claim", "dispatchers")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("thresholds.moved_load_threshold", def.MovedLoadThreshold)
	v.SetDefault("thresholds.not_closed_days_threshold", def.NotClosedDaysThreshold)
	v.SetDefault("thresholds.low_rpm_threshold", def.LowRPMThreshold)
	v.SetDefault("thresholds.good_move_thresholds.default", def.GoodMoveThresholds.Default)
	v.SetDefault("cluster.grid_size", 1.0)
	v.SetDefault("cluster.direction", string(model.Inbound))
	v.SetDefault("webhooks.urls", []string{})
	v.SetDefault("webhooks.secret", "")
	v.SetDefault("webhooks.max_attempts", 10)
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required for the postgres driver")
		}
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return eris.Wrap(err, "config: thresholds")
	}
	if !cluster.ValidGridSize(c.Cluster.GridSize) {
		return eris.Errorf("config: cluster.grid_size must be in [%g, %g]", cluster.MinGridSize, cluster.MaxGridSize)
	}
	if _, err := model.ParseDirection(c.Cluster.Direction); err != nil {
		return eris.Wrap(err, "config: cluster.direction")
	}
	for _, u := range c.Webhooks.URLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return eris.Errorf("config: webhooks.urls entry %q must be an http(s) URL", u)
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
