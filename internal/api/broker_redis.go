package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker implements EventBroker over Redis pub/sub so every replica
// sees refresh events published by any other.
type RedisBroker struct {
	rdb    *redis.Client
	prefix string

	mu   sync.Mutex
	subs map[chan Event]*redis.PubSub
}

func NewRedisBroker(rdb *redis.Client, prefix string) *RedisBroker {
	if prefix == "" {
		prefix = "dispatchboard"
	}
	return &RedisBroker{rdb: rdb, prefix: prefix, subs: map[chan Event]*redis.PubSub{}}
}

func (b *RedisBroker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(topic))
	// wait for the subscription confirmation so an immediate Publish is not lost
	if _, err := ps.Receive(ctx); err != nil {
		zap.L().Warn("redis subscribe", zap.String("topic", topic), zap.Error(err))
	}
	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe closes the underlying PubSub; the forwarding goroutine then
// closes ch.
func (b *RedisBroker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	ps, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ok {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(topic string, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := json.Marshal(evt)
	if err != nil {
		zap.L().Warn("redis publish encode", zap.String("topic", topic), zap.String("type", evt.Type), zap.Error(err))
		return
	}
	if err := b.rdb.Publish(ctx, b.chanName(topic), data).Err(); err != nil {
		zap.L().Warn("redis publish", zap.String("topic", topic), zap.Error(err))
	}
}

func (b *RedisBroker) chanName(topic string) string { return b.prefix + ":events:" + topic }
