package challenge

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is an in-process Store driven by a Clocker. It is only shared within
// one process, so it suits tests and single-instance development runs.
type Memory struct {
	mu      sync.Mutex
	clock   clock.Clocker
	entries map[string]memoryEntry
}

// NewMemory returns an empty Memory store reading time from c.
func NewMemory(c clock.Clocker) *Memory {
	return &Memory{
		clock:   c,
		entries: make(map[string]memoryEntry),
	}
}

// lookup returns the live entry for key, evicting it when expired. Callers hold mu.
func (m *Memory) lookup(key string, now time.Time) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if e.expired(now) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

// Set stores value under key. A non-positive ttl keeps it forever.
func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return unavailable("set", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.clock.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Get returns the live value under key or ErrNotFound.
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("get", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key, m.clock.Now())
	if !ok {
		return "", ErrNotFound
	}
	return e.value, nil
}

// Delete removes key. A missing key is not an error.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("delete", err)
	}

	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Take deletes key when it still holds value.
func (m *Memory) Take(ctx context.Context, key, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("take", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key, m.clock.Now())
	if !ok || e.value != value {
		return false, nil
	}
	delete(m.entries, key)
	return true, nil
}

// Incr adds one to the counter under key, creating it at 1.
func (m *Memory) Incr(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable("incr", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.incr(key, m.clock.Now())
}

func (m *Memory) incr(key string, now time.Time) (int64, error) {
	e, ok := m.lookup(key, now)
	var n int64
	if ok {
		v, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		n = v
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	m.entries[key] = e
	return n, nil
}

// ExpireNX sets ttl only on a live key that has no expiry yet.
func (m *Memory) ExpireNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("expire_nx", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	e, ok := m.lookup(key, now)
	if !ok || !e.expiresAt.IsZero() {
		return false, nil
	}
	e.expiresAt = now.Add(ttl)
	m.entries[key] = e
	return true, nil
}

// TTL returns the remaining lifetime, NoExpiry, or ErrNotFound.
func (m *Memory) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable("ttl", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	e, ok := m.lookup(key, now)
	if !ok {
		return 0, ErrNotFound
	}
	if e.expiresAt.IsZero() {
		return NoExpiry, nil
	}
	return e.expiresAt.Sub(now), nil
}

// IncrWindow increments key and attaches window when the key has no expiry.
func (m *Memory) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, unavailable("incr_window", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	n, err := m.incr(key, now)
	if err != nil {
		return 0, 0, err
	}

	e := m.entries[key]
	if e.expiresAt.IsZero() {
		e.expiresAt = now.Add(window)
		m.entries[key] = e
	}
	return n, e.expiresAt.Sub(now), nil
}
