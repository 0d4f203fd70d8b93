package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cache:"

// stalePadding keeps entries physically alive in Redis well past their
// logical expiry so GetStale can serve last-known values during
// upstream outages.
const stalePadding = 24 * time.Hour

type redisEntry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Redis is the shared Store implementation for multi-process
// deployments. The logical expiry lives inside the payload; the Redis
// TTL only bounds how long stale values are retained.
type Redis struct {
	client *redis.Client
	clock  Clock
}

func NewRedis(client *redis.Client, clock Clock) *Redis {
	if clock == nil {
		clock = SystemClock
	}
	return &Redis{client: client, clock: clock}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := r.load(ctx, key)
	if !ok || r.clock.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Value, true
}

func (r *Redis) GetStale(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := r.load(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	entry := redisEntry{
		Value:     value,
		ExpiresAt: r.clock.Now().Add(ttl),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	// Best-effort: a failed write only costs an upstream call.
	r.client.Set(ctx, redisKeyPrefix+key, payload, ttl+stalePadding)
}

func (r *Redis) load(ctx context.Context, key string) (redisEntry, bool) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return redisEntry{}, false
	}
	var entry redisEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return redisEntry{}, false
	}
	return entry, true
}
