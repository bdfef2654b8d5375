package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemory_PublishConsume(t *testing.T) {
	m := NewMemory(MemoryConfig{})
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// published before any consumer: kept in the backlog
	err := m.Publish(ctx, "identity.otp.dispatch", OutgoingMessage{
		Body:    []byte("hello"),
		Headers: map[string]string{"cID": "abc"},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	got := make(chan Message, 1)
	go func() {
		_ = m.Consume(ctx, "identity.otp.dispatch", func(_ context.Context, msg Message) error {
			got <- msg
			return nil
		}, WithGroup("sms"))
	}()

	select {
	case msg := <-got:
		if string(msg.Body()) != "hello" || msg.Header("cID") != "abc" {
			t.Fatalf("got body %q header %q", msg.Body(), msg.Header("cID"))
		}
		if msg.Attempts() != 1 {
			t.Fatalf("Attempts() = %d", msg.Attempts())
		}
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestMemory_RedeliversOnNack(t *testing.T) {
	m := NewMemory(MemoryConfig{MaxAttempts: 3})
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var mu sync.Mutex
	var attempts []int
	done := make(chan struct{})

	go func() {
		_ = m.Consume(ctx, "t", func(_ context.Context, msg Message) error {
			mu.Lock()
			defer mu.Unlock()
			attempts = append(attempts, msg.Attempts())
			if len(attempts) == 3 {
				close(done)
			}
			return errors.New("provider down")
		}, WithGroup("g"))
	}()

	if err := m.Publish(ctx, "t", OutgoingMessage{Body: []byte("x")}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("expected three attempts")
	}

	// the third attempt is the last one
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Fatalf("attempts = %v", attempts)
	}
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory(MemoryConfig{})
	_ = m.Close()

	if err := m.Publish(context.Background(), "t", OutgoingMessage{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Publish() error = %v, want ErrClosed", err)
	}
	if err := m.Consume(context.Background(), "t", func(context.Context, Message) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Fatalf("Consume() error = %v, want ErrClosed", err)
	}
}

func TestNewFromDriver(t *testing.T) {
	if _, err := NewFromDriver(context.Background(), "rabbit", FactoryOptions{}); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("error = %v, want ErrUnknownDriver", err)
	}

	msg, err := NewFromDriver(context.Background(), " memory ", FactoryOptions{})
	if err != nil {
		t.Fatalf("NewFromDriver(memory) error = %v", err)
	}
	_ = msg.Close()
}
