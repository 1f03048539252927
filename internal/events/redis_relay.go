package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisRelay mirrors every envelope a Hub publishes onto a Redis channel
// so a separate process (a reporting dashboard, another session's
// subscriber) can observe a running session without holding a direct
// WebSocket connection to it. Unlike teacher's CachedStore, which uses
// Redis as a read-through cache in front of Postgres, this session has no
// read-heavy lookup to cache — the same client here backs a pub/sub
// mirror instead. Register it with Hub.Subscribe to start receiving.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	ctx     context.Context
}

func NewRedisRelay(ctx context.Context, rdb *redis.Client, channel string) *RedisRelay {
	return &RedisRelay{rdb: rdb, channel: channel, ctx: ctx}
}

// Publish implements Sink.
func (r *RedisRelay) Publish(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("redis relay marshal failed", "err", err)
		return
	}
	if err := r.rdb.Publish(r.ctx, r.channel, data).Err(); err != nil {
		slog.Error("redis relay publish failed", "err", err)
	}
}
