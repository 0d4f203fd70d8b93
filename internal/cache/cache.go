package cache

import (
	"context"
	"time"
)

// Clock abstracts time.Now so expiry can be driven deterministically
// in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall-clock used outside tests.
var SystemClock Clock = systemClock{}

// Store is a best-effort TTL cache shared across all requests in a
// process. Losing its contents only costs extra upstream calls.
//
// Get returns (nil, false) once an entry's TTL has lapsed; GetStale
// keeps returning the last written value past expiry so callers can
// fall back to last-known data when an upstream is down.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	GetStale(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}
