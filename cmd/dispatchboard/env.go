package main

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"dispatchboard/internal/api"
	"dispatchboard/internal/config"
	"dispatchboard/internal/settings"
	"dispatchboard/internal/store"
)

// backends holds the configured storage and fan-out dependencies.
type backends struct {
	Store    store.Store
	Settings settings.Store
	Broker   api.EventBroker

	closers []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends connects the load store and, when a Redis URL is configured,
// the Redis settings store and broker. Unset backends fall back to memory.
func openBackends(ctx context.Context, c *config.Config) (*backends, error) {
	b := &backends{}

	switch c.Store.Driver {
	case "postgres":
		pg, err := store.NewPostgres(ctx, c.Store.DatabaseURL, store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
		if err != nil {
			return nil, eris.Wrap(err, "open postgres store")
		}
		b.closers = append(b.closers, pg.Close)
		if c.Store.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				b.Close()
				return nil, eris.Wrap(err, "migrate postgres store")
			}
		}
		b.Store = pg
	default:
		b.Store = store.NewMemory()
	}

	if c.Redis.URL != "" {
		opt, err := redis.ParseURL(c.Redis.URL)
		if err != nil {
			b.Close()
			return nil, eris.Wrap(err, "parse redis url")
		}
		rdb := redis.NewClient(opt)
		b.closers = append(b.closers, func() { _ = rdb.Close() })

		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			b.Close()
			return nil, eris.Wrap(err, "ping redis")
		}
		ttl := time.Duration(c.Redis.SettingsTTLHours) * time.Hour
		b.Settings = settings.NewRedis(rdb, c.Redis.KeyPrefix, ttl)
		b.Broker = api.NewRedisBroker(rdb, c.Redis.KeyPrefix)
	} else {
		b.Settings = settings.NewMemory()
		b.Broker = api.NewBroker()
	}

	zap.L().Info("backends ready",
		zap.String("store", c.Store.Driver),
		zap.Bool("redis", c.Redis.URL != ""),
	)
	return b, nil
}
