// Package goroutine runs background tasks, such as OTP dispatch, on a bounded
// pool that the application drains on shutdown.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/otpauth/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a
// non-positive limit.
const DefaultMaxGoroutine int = 100

// maxKeptErrors bounds how many task errors Wait reports; later ones are only
// logged and counted.
const maxKeptErrors = 16

var (
	// ErrClosed is returned by Go once Wait has been called.
	ErrClosed = errors.New("goroutine: manager is closed")
	// ErrSaturated is returned by Go when every slot is busy.
	ErrSaturated = errors.New("goroutine: maximum goroutine limit reached")
)

// Manager runs fire-and-forget tasks with a bounded number of goroutines.
//
// Callers that must not tie a task to their request lifetime pass
// context.WithoutCancel(ctx). Task errors and recovered panics are logged; the
// first few are kept for Wait and the rest are counted.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.RWMutex // guards closed against concurrent Go and Wait
	closed bool

	errMu   sync.Mutex
	errs    []error
	dropped int
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go starts f without waiting for a free slot. It returns ErrSaturated or
// ErrClosed when f was not started.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) error {
	if g == nil {
		return ErrClosed
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping new goroutine")
		return ErrClosed
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "maximum goroutine limit reached, failed to start new goroutine")
		return ErrSaturated
	}

	g.wg.Go(func() {
		defer func() { <-g.sema }()

		if err := g.run(ctx, f); err != nil {
			slog.WarnContext(ctx, "background task failed", "error", err)
			g.keepError(err)
		}
	})

	return nil
}

func (g *Manager) run(ctx context.Context, f func(ctx context.Context) error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("goroutine: panic: %v", rvr)
	}()

	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "goroutine canceled", "because", err)
		return nil
	}

	return f(ctx)
}

func (g *Manager) keepError(err error) {
	g.errMu.Lock()
	defer g.errMu.Unlock()

	if len(g.errs) < maxKeptErrors {
		g.errs = append(g.errs, err)
		return
	}
	g.dropped++
}

// Wait closes the manager, blocks until all started tasks finish and returns
// the kept task errors joined.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.errMu.Lock()
	defer g.errMu.Unlock()
	if g.dropped > 0 {
		return errors.Join(append(g.errs, fmt.Errorf("goroutine: %d more task errors omitted", g.dropped))...)
	}
	return errors.Join(g.errs...)
}
