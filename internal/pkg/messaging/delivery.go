package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/otpauth/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// delivery adapts one broker message to Message and settles it exactly once.
type delivery struct {
	id       string
	body     []byte
	headers  map[string]string
	attempts int

	ack  func() error
	nack func() error

	settled atomic.Bool
}

func (d *delivery) ID() string                 { return d.id }
func (d *delivery) Body() []byte               { return d.body }
func (d *delivery) Headers() map[string]string { return d.headers }
func (d *delivery) Header(key string) string   { return d.headers[key] }

func (d *delivery) Attempts() int {
	if d.attempts < 1 {
		return 1
	}
	return d.attempts
}

func (d *delivery) settle(handlerErr error) error {
	if d.settled.Swap(true) {
		return nil
	}
	if handlerErr == nil {
		if d.ack == nil {
			return nil
		}
		return d.ack()
	}
	if d.nack == nil {
		return nil
	}
	return d.nack()
}

// dispatch runs handler on d, recovering panics, then acks or nacks d.
func dispatch(ctx context.Context, kind string, handler Handler, d *delivery) error {
	herr := callHandlerWithRecover(ctx, kind, func() error {
		return handler(ctx, d)
	})
	return d.settle(herr)
}

func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			paths := stacktrace.InternalPaths(stack)
			if len(paths) == 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", paths)
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}
