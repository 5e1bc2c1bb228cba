package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"dispatchboard/internal/model"
)

// Redis stores thresholds as JSON under one key per user.
type Redis struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedis wraps a client. A zero ttl keeps settings forever.
func NewRedis(rdb redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "dispatchboard"
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *Redis) key(userID string) string { return s.prefix + ":thresholds:" + userID }

func (s *Redis) Get(ctx context.Context, userID string) (model.Thresholds, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Thresholds{}, false, nil
	}
	if err != nil {
		return model.Thresholds{}, false, eris.Wrap(err, "settings: redis get")
	}
	var th model.Thresholds
	if err := json.Unmarshal(raw, &th); err != nil {
		return model.Thresholds{}, false, eris.Wrap(err, "settings: decode thresholds")
	}
	return th, true, nil
}

func (s *Redis) Put(ctx context.Context, userID string, th model.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(th)
	if err != nil {
		return eris.Wrap(err, "settings: encode thresholds")
	}
	return eris.Wrap(s.rdb.Set(ctx, s.key(userID), raw, s.ttl).Err(), "settings: redis set")
}

func (s *Redis) Delete(ctx context.Context, userID string) error {
	return eris.Wrap(s.rdb.Del(ctx, s.key(userID)).Err(), "settings: redis del")
}
