package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/challenge"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/ratelimit"
)

const (
	// DefaultTTL is how long an issued code stays valid.
	DefaultTTL = 120 * time.Second

	minCode   = 1000
	codeRange = 9000

	keyPrefix = "otp:"
)

var (
	// ErrNoActiveChallenge is returned by Verify when nothing is pending for
	// the identity, either because no code was issued or because it expired.
	ErrNoActiveChallenge = errors.New("otp: no active challenge")

	// ErrInvalidCode is returned by Verify when the submitted code does not
	// match the pending one.
	ErrInvalidCode = errors.New("otp: invalid code")
)

// Limiter decides whether a code may be issued right now.
type Limiter interface {
	TryAcquire(ctx context.Context, identity string) (ratelimit.Decision, error)
}

type hasher interface {
	Hash(str string) ([]byte, error)
}

// Generator produces a fresh code.
type Generator func() (string, error)

// Challenge is a freshly issued code.
type Challenge struct {
	Identity  string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithHasher stores HMAC digests of "identity:code" instead of the code itself.
func WithHasher(h hasher) Option {
	return func(e *Engine) { e.hasher = h }
}

// WithClock sets the time source used for Challenge timestamps.
func WithClock(c clock.Clocker) Option {
	return func(e *Engine) { e.clock = c }
}

// WithGenerator replaces the random code source.
func WithGenerator(g Generator) Option {
	return func(e *Engine) { e.generate = g }
}

// Engine composes a Limiter and a challenge.Store into the issue/verify lifecycle.
type Engine struct {
	store    challenge.Store
	limiter  Limiter
	hasher   hasher
	clock    clock.Clocker
	generate Generator
	ttl      time.Duration
}

// NewEngine returns an Engine storing challenges in store and rate limiting
// issuance with limiter.
func NewEngine(store challenge.Store, limiter Limiter, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		limiter:  limiter,
		clock:    clock.New(),
		generate: GenerateCode,
		ttl:      DefaultTTL,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// TTL returns how long issued codes stay valid.
func (e *Engine) TTL() time.Duration { return e.ttl }

// Issue rate limits identity and, when allowed, stores a new code replacing
// any pending one. A denied attempt returns the limiter error and changes no
// challenge state.
func (e *Engine) Issue(ctx context.Context, identity string) (Challenge, error) {
	if _, err := e.limiter.TryAcquire(ctx, identity); err != nil {
		return Challenge{}, err
	}

	code, err := e.generate()
	if err != nil {
		return Challenge{}, fmt.Errorf("otp: generate code: %w", err)
	}

	stored, err := e.storedValue(identity, code)
	if err != nil {
		return Challenge{}, err
	}

	now := e.clock.Now()
	if err := e.store.Set(ctx, Key(identity), stored, e.ttl); err != nil {
		return Challenge{}, fmt.Errorf("otp: store challenge: %w", err)
	}

	return Challenge{
		Identity:  identity,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(e.ttl),
	}, nil
}

// Verify checks code against the pending challenge and consumes it on match.
// A code can yield success only once.
func (e *Engine) Verify(ctx context.Context, identity, code string) error {
	current, err := e.store.Get(ctx, Key(identity))
	if errors.Is(err, challenge.ErrNotFound) {
		return ErrNoActiveChallenge
	}
	if err != nil {
		return fmt.Errorf("otp: load challenge: %w", err)
	}

	submitted, err := e.storedValue(identity, code)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(current), []byte(submitted)) != 1 {
		return ErrInvalidCode
	}

	// Another request may have consumed, replaced or expired it since Get.
	taken, err := e.store.Take(ctx, Key(identity), submitted)
	if err != nil {
		return fmt.Errorf("otp: consume challenge: %w", err)
	}
	if !taken {
		return ErrNoActiveChallenge
	}

	return nil
}

func (e *Engine) storedValue(identity, code string) (string, error) {
	if e.hasher == nil {
		return code, nil
	}

	sum, err := e.hasher.Hash(identity + ":" + code)
	if err != nil {
		return "", fmt.Errorf("otp: hash code: %w", err)
	}

	return string(sum), nil
}

// Key returns the store key holding the pending challenge for identity.
func Key(identity string) string {
	return keyPrefix + identity
}

// GenerateCode returns a uniformly random code in 1000..9999 from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Int64()+minCode, 10), nil
}
