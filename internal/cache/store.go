// Package cache provides short-lived shared state such as rate-limit counters
// and login lockouts.
package cache

import (
	"context"
	"time"
)

// Store represents a shared cache interface used across the application.
type Store interface {
	// IncrementWithTTL bumps a fixed-window counter and returns the new count
	// and the time left in the window.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Purger is implemented by stores that need expired rows swept periodically.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
