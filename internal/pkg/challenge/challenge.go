// Package challenge is the shared key-value store with per-key expiry that
// holds pending OTP values and rate-limit counters.
//
// The store is always injected. Production code uses the Redis implementation
// so that every process sees the same state; tests use Memory with a fake clock.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NoExpiry is returned by TTL when the key exists but never expires.
const NoExpiry time.Duration = -1

var (
	// ErrNotFound is returned when a key is absent or already expired.
	ErrNotFound = errors.New("challenge: key not found")

	// ErrUnavailable wraps every failure to reach the backing store.
	ErrUnavailable = errors.New("challenge: store unavailable")

	// ErrNotInteger is returned when Incr hits a key that does not hold an integer.
	ErrNotInteger = errors.New("challenge: value is not an integer")
)

// Store is a string key-value mapping with TTLs. Every method is a single
// atomic operation against the backing store.
type Store interface {
	// Set upserts value under key, replacing any existing value and expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Take deletes key only when it currently holds value and reports whether it did.
	Take(ctx context.Context, key, value string) (bool, error)
	// Incr increments the counter under key, creating it at 1, and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// ExpireNX attaches ttl to key only when key has no expiry yet.
	ExpireNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// TTL returns the remaining lifetime of key, NoExpiry, or ErrNotFound.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// IncrWindow increments the counter under key and attaches window as its
	// expiry when it has none, in one step. It returns the new count and the
	// remaining lifetime of the window.
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
