package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/challenge"
)

const (
	// DefaultWindow is used when Config.Window is not positive.
	DefaultWindow = 60 * time.Second
	// DefaultMaxPerWindow is used when Config.MaxPerWindow is not positive.
	DefaultMaxPerWindow = 1

	keyPrefix = "rate:"
)

// ErrRateLimited matches every *RateLimitedError via errors.Is.
var ErrRateLimited = errors.New("ratelimit: too many attempts")

// RateLimitedError is returned when an identity has used up its window.
type RateLimitedError struct {
	// RetryAfter is the remaining lifetime of the current window.
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("ratelimit: too many attempts, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// Config controls the window and the number of attempts allowed inside it.
type Config struct {
	Window       time.Duration
	MaxPerWindow int64
}

// Decision describes an allowed attempt.
type Decision struct {
	// Count is the number of attempts in the current window, this one included.
	Count int64
	// Remaining is how long the current window still lives.
	Remaining time.Duration
}

// Limiter implements a fixed-window limiter on top of a challenge.Store.
type Limiter struct {
	store  challenge.Store
	window time.Duration
	max    int64
}

// New returns a Limiter. Non-positive config values fall back to the defaults.
func New(store challenge.Store, cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxPerWindow <= 0 {
		cfg.MaxPerWindow = DefaultMaxPerWindow
	}

	return &Limiter{store: store, window: cfg.Window, max: cfg.MaxPerWindow}
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// TryAcquire records one attempt for identity. It returns a *RateLimitedError
// when the attempt exceeds the window budget, or a store error wrapping
// challenge.ErrUnavailable.
func (l *Limiter) TryAcquire(ctx context.Context, identity string) (Decision, error) {
	count, remaining, err := l.store.IncrWindow(ctx, Key(identity), l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: acquire %q: %w", identity, err)
	}

	if remaining <= 0 || remaining > l.window {
		remaining = l.window
	}

	if count > l.max {
		return Decision{}, &RateLimitedError{RetryAfter: remaining}
	}

	return Decision{Count: count, Remaining: remaining}, nil
}

// Key returns the store key holding the counter for identity.
func Key(identity string) string {
	return keyPrefix + identity
}
