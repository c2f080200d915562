package domain

import (
	"context"
	"time"
)

// OpinionCache holds decorated opinion views for fast list rendering.
type OpinionCache interface {
	SetViews(ctx context.Context, views []OpinionView) error
	GetViews(ctx context.Context) ([]OpinionView, error)
	Invalidate(ctx context.Context) error
}

// KVStore is a small persisted key-value store scoped by namespaced keys.
// Losing its contents only affects UX continuity.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Incr atomically adds one to the integer at key, starting from zero.
	Incr(ctx context.Context, key string) (int64, error)
	// Update atomically replaces the value at key with fn's result. found
	// is false when the key is missing; an error from fn aborts the write.
	Update(ctx context.Context, key string, fn func(old string, found bool) (string, error)) (string, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fan-out of refresh events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
