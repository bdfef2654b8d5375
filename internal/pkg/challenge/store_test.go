package challenge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var (
	_ Store = (*Redis)(nil)
	_ Store = (*Memory)(nil)
)

// testStoreContract exercises behaviour every Store must share. advance moves
// the store's notion of time forward; subtests that need it are skipped when nil.
func testStoreContract(t *testing.T, s Store, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("set replaces value and ttl", func(t *testing.T) {
		if err := s.Set(ctx, "otp:alice", "1111", time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := s.Set(ctx, "otp:alice", "2222", 2*time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, err := s.Get(ctx, "otp:alice")
		if err != nil || got != "2222" {
			t.Fatalf("Get() = %q, %v; want 2222", got, err)
		}

		ttl, err := s.TTL(ctx, "otp:alice")
		if err != nil {
			t.Fatalf("TTL() error = %v", err)
		}
		if ttl <= time.Minute || ttl > 2*time.Minute {
			t.Fatalf("TTL() = %s, want within (1m, 2m]", ttl)
		}
	})

	t.Run("delete", func(t *testing.T) {
		_ = s.Set(ctx, "otp:del", "1234", time.Minute)
		if err := s.Delete(ctx, "otp:del"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Get(ctx, "otp:del"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get() after delete error = %v", err)
		}
		if err := s.Delete(ctx, "otp:del"); err != nil {
			t.Fatalf("Delete() of missing key error = %v", err)
		}
	})

	t.Run("take only on match", func(t *testing.T) {
		_ = s.Set(ctx, "otp:take", "5555", time.Minute)

		ok, err := s.Take(ctx, "otp:take", "0000")
		if err != nil || ok {
			t.Fatalf("Take(mismatch) = %v, %v", ok, err)
		}
		if _, err := s.Get(ctx, "otp:take"); err != nil {
			t.Fatalf("mismatched Take must keep the key: %v", err)
		}

		ok, err = s.Take(ctx, "otp:take", "5555")
		if err != nil || !ok {
			t.Fatalf("Take(match) = %v, %v", ok, err)
		}
		ok, err = s.Take(ctx, "otp:take", "5555")
		if err != nil || ok {
			t.Fatalf("second Take(match) = %v, %v", ok, err)
		}
	})

	t.Run("incr and expire nx", func(t *testing.T) {
		n, err := s.Incr(ctx, "rate:incr")
		if err != nil || n != 1 {
			t.Fatalf("Incr() = %d, %v", n, err)
		}
		if ttl, err := s.TTL(ctx, "rate:incr"); err != nil || ttl != NoExpiry {
			t.Fatalf("TTL() = %s, %v; want NoExpiry", ttl, err)
		}

		set, err := s.ExpireNX(ctx, "rate:incr", time.Minute)
		if err != nil || !set {
			t.Fatalf("ExpireNX() = %v, %v", set, err)
		}
		set, err = s.ExpireNX(ctx, "rate:incr", time.Hour)
		if err != nil || set {
			t.Fatalf("second ExpireNX() = %v, %v; want false", set, err)
		}
		if ttl, _ := s.TTL(ctx, "rate:incr"); ttl > time.Minute {
			t.Fatalf("TTL() = %s, ExpireNX must not override", ttl)
		}

		n, err = s.Incr(ctx, "rate:incr")
		if err != nil || n != 2 {
			t.Fatalf("Incr() = %d, %v", n, err)
		}
	})

	t.Run("incr non integer", func(t *testing.T) {
		_ = s.Set(ctx, "rate:text", "abc", time.Minute)
		if _, err := s.Incr(ctx, "rate:text"); !errors.Is(err, ErrNotInteger) {
			t.Fatalf("Incr() error = %v, want ErrNotInteger", err)
		}
	})

	t.Run("ttl missing key", func(t *testing.T) {
		if _, err := s.TTL(ctx, "nothing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("TTL() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("incr window attaches ttl once", func(t *testing.T) {
		n, remaining, err := s.IncrWindow(ctx, "rate:window", time.Minute)
		if err != nil || n != 1 {
			t.Fatalf("IncrWindow() = %d, %v", n, err)
		}
		if remaining <= 0 || remaining > time.Minute {
			t.Fatalf("remaining = %s", remaining)
		}

		n, remaining, err = s.IncrWindow(ctx, "rate:window", time.Hour)
		if err != nil || n != 2 {
			t.Fatalf("IncrWindow() = %d, %v", n, err)
		}
		if remaining > time.Minute {
			t.Fatalf("second call must keep the first window, remaining = %s", remaining)
		}
	})

	t.Run("incr window bounds a counter without ttl", func(t *testing.T) {
		if _, err := s.Incr(ctx, "rate:orphan"); err != nil {
			t.Fatalf("Incr() error = %v", err)
		}

		n, remaining, err := s.IncrWindow(ctx, "rate:orphan", time.Minute)
		if err != nil || n != 2 {
			t.Fatalf("IncrWindow() = %d, %v", n, err)
		}
		if remaining <= 0 || remaining > time.Minute {
			t.Fatalf("remaining = %s", remaining)
		}
	})

	t.Run("incr window is atomic under concurrency", func(t *testing.T) {
		const workers = 50
		var wg sync.WaitGroup
		counts := make(chan int64, workers)
		for range workers {
			wg.Go(func() {
				n, _, err := s.IncrWindow(ctx, "rate:concurrent", time.Minute)
				if err != nil {
					t.Errorf("IncrWindow() error = %v", err)
					return
				}
				counts <- n
			})
		}
		wg.Wait()
		close(counts)

		seen := make(map[int64]bool, workers)
		for n := range counts {
			if seen[n] {
				t.Fatalf("count %d returned twice", n)
			}
			seen[n] = true
		}
		if len(seen) != workers {
			t.Fatalf("got %d distinct counts, want %d", len(seen), workers)
		}
	})

	if advance == nil {
		return
	}

	t.Run("expiry", func(t *testing.T) {
		_ = s.Set(ctx, "otp:expire", "9999", 2*time.Minute)
		_, _, _ = s.IncrWindow(ctx, "rate:expire", time.Minute)

		advance(61 * time.Second)

		if _, err := s.TTL(ctx, "rate:expire"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("window should be gone, TTL() error = %v", err)
		}
		if got, err := s.Get(ctx, "otp:expire"); err != nil || got != "9999" {
			t.Fatalf("otp must outlive the window: %q, %v", got, err)
		}

		n, _, err := s.IncrWindow(ctx, "rate:expire", time.Minute)
		if err != nil || n != 1 {
			t.Fatalf("new window IncrWindow() = %d, %v; want 1", n, err)
		}

		advance(time.Minute)
		if _, err := s.Get(ctx, "otp:expire"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("otp should be expired, Get() error = %v", err)
		}
		if ok, _ := s.Take(ctx, "otp:expire", "9999"); ok {
			t.Fatal("expired otp must not be taken")
		}
	})
}
