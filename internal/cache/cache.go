package cache

import (
	"context"
	"time"
)

// Cache is the read-through cache in front of hot meeting lookups. Misses
// and decode failures both report hit=false; callers fall back to the
// repository and repopulate.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
