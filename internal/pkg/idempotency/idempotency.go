// Package idempotency guards side effects that may be triggered more than once,
// such as a broker redelivering the same OTP dispatch.
//
// State lives in Redis under "idempotency:{key}". The first caller takes an
// in-progress lock stamped with a random owner token; later callers see the
// recorded state. Only the owner may release the lock or mark it failed, so a
// worker whose lock already expired cannot wipe a newer attempt.
package idempotency

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrAlreadyFailed     = errors.New("idempotency: operation already failed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
	// ErrLockLost is returned when the in-progress lock expired before the
	// owner could release it or mark it failed.
	ErrLockLost = errors.New("idempotency: lock lost")
)

type State string

const (
	StateNone       State = "none"        // caller holds the lock and may proceed
	StateInProgress State = "in_progress" // another caller holds the lock
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

func (s State) String() string {
	return string(s)
}

const (
	defaultPrefix       = "idempotency:"
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

// acquireScript sets ARGV[1] with a PX of ARGV[2] when the key is absent and
// returns "", otherwise returns the current value untouched.
var acquireScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
	return ''
end
return v
`)

// ownerScript replaces (or deletes, when ARGV[2] is empty) the key only while
// it still holds the owner's lock value ARGV[1].
var ownerScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
	return 0
end
if ARGV[2] == '' then
	redis.call('DEL', KEYS[1])
else
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end
return 1
`)

// Idempotency runs fn at most once per key.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// StateTracker implements Idempotency on Redis.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client, prefix: defaultPrefix}
}

// Lock is an acquired in-progress marker.
type Lock struct {
	tracker *StateTracker
	key     string
	value   string
}

// Acquire tries to take the lock for key. The returned Lock is non-nil only
// when the state is StateNone.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (*Lock, State, error) {
	token, err := newToken()
	if err != nil {
		return nil, "", err
	}

	lock := &Lock{tracker: s, key: s.prefix + key, value: StateInProgress.String() + ":" + token}

	current, err := acquireScript.Run(ctx, s.client, []string{lock.key}, lock.value, lockDuration.Milliseconds()).Text()
	if err != nil {
		return nil, "", fmt.Errorf("idempotency: acquire %s: %w", key, err)
	}

	switch {
	case current == "":
		return lock, StateNone, nil
	case strings.HasPrefix(current, StateInProgress.String()):
		return nil, StateInProgress, nil
	case current == StateCompleted.String():
		return nil, StateCompleted, nil
	case current == StateFailed.String():
		return nil, StateFailed, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidState, current)
	}
}

// Complete records success. It writes even when the lock expired, since the
// side effect has already happened.
func (l *Lock) Complete(ctx context.Context, ttl time.Duration) error {
	return l.tracker.client.Set(ctx, l.key, StateCompleted.String(), ttl).Err()
}

// Fail records failure so later callers get ErrAlreadyFailed.
func (l *Lock) Fail(ctx context.Context, ttl time.Duration) error {
	return l.swap(ctx, StateFailed.String(), ttl)
}

// Release drops the lock so a later caller may try again.
func (l *Lock) Release(ctx context.Context) error {
	return l.swap(ctx, "", 0)
}

func (l *Lock) swap(ctx context.Context, next string, ttl time.Duration) error {
	n, err := ownerScript.Run(ctx, l.tracker.client, []string{l.key}, l.value, next, ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration   time.Duration
	stateTTL       time.Duration
	releaseOnError bool
}

// WithLockDuration bounds how long a crashed caller can block others.
func WithLockDuration(lockDuration time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = lockDuration }
}

// WithStateTTL sets how long completed and failed states are remembered.
func WithStateTTL(stateTTL time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = stateTTL }
}

// WithReleaseOnError drops the lock when fn fails instead of recording a
// failed state, so a later redelivery may try again.
func WithReleaseOnError() Option {
	return func(o *execOptions) { o.releaseOnError = true }
}

// Exec runs fn unless key is in progress, completed or failed, reporting
// those with the matching ErrAlready* error.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := &execOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	lock, state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		var markErr error
		if o.releaseOnError {
			markErr = lock.Release(ctx)
		} else {
			markErr = lock.Fail(ctx, o.stateTTL)
		}
		return errors.Join(err, markErr)
	}

	return lock.Complete(ctx, o.stateTTL)
}

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("idempotency: token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
