package challenge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
)

func TestMemory(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	testStoreContract(t, NewMemory(fake), fake.Advance)
}

func TestMemory_CanceledContext(t *testing.T) {
	m := NewMemory(clock.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Set(ctx, "k", "v", time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Set() error = %v, want ErrUnavailable", err)
	}
	if _, _, err := m.IncrWindow(ctx, "k", time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("IncrWindow() error = %v, want ErrUnavailable", err)
	}
}

func TestMemory_TTLDecreases(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	m := NewMemory(fake)
	ctx := context.Background()

	_, first, _ := m.IncrWindow(ctx, "rate:bob", time.Minute)
	fake.Advance(20 * time.Second)
	second, err := m.TTL(ctx, "rate:bob")
	if err != nil {
		t.Fatalf("TTL() error = %v", err)
	}
	if second != first-20*time.Second {
		t.Fatalf("TTL() = %s, want %s", second, first-20*time.Second)
	}
}
