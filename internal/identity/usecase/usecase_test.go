package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/identity/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/challenge"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
	"github.com/shandysiswandi/otpauth/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type fakeRepoDB struct {
	mu      sync.Mutex
	users   []entity.User
	findErr error
}

func (f *fakeRepoDB) FindByIdentifier(_ context.Context, identifier string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.Username == identifier || u.PhoneNumber == identifier {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepoDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepoDB) CreateUser(_ context.Context, in entity.CreateUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Username == in.Username {
			return entity.ErrUsernameTaken
		}
		if u.PhoneNumber == in.PhoneNumber {
			return entity.ErrPhoneNumberTaken
		}
	}
	f.users = append(f.users, entity.User{
		ID:           in.ID,
		Username:     in.Username,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: in.PasswordHash,
	})
	return nil
}

type fakeRepoMessaging struct {
	mu     sync.Mutex
	events []OTPDispatchEvent
	err    error
}

func (f *fakeRepoMessaging) PublishOTPDispatch(_ context.Context, msg OTPDispatchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, msg)
	return nil
}

type seqID struct{ n int }

func (s *seqID) Generate() string {
	s.n++
	return "dispatch-" + strconv.Itoa(s.n)
}

type harness struct {
	uc      *Usecase
	db      *fakeRepoDB
	mq      *fakeRepoMessaging
	clock   *clock.Fake
	jwt     *jwt.Symmetric
	workers *goroutine.Manager
	codes   []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		db:      &fakeRepoDB{},
		mq:      &fakeRepoMessaging{},
		clock:   clock.NewFake(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
		workers: goroutine.NewManager(4),
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	h.jwt, err = jwt.NewHS512(jwt.Config{
		Secret:    []byte(testSecret),
		Issuer:    "otpauth",
		Audiences: []string{"otpauth-api"},
		Clock:     h.clock,
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}

	sf, err := uid.NewSnowflake(1)
	if err != nil {
		t.Fatalf("NewSnowflake() error = %v", err)
	}

	store := challenge.NewMemory(h.clock)
	engine := otp.NewEngine(store,
		ratelimit.New(store, ratelimit.Config{Window: time.Minute, MaxPerWindow: 1}),
		otp.WithClock(h.clock),
		otp.WithHasher(hash.NewHMACSHA256("otp-secret")),
		otp.WithGenerator(func() (string, error) {
			code := "4321"
			if len(h.codes) > 0 {
				code, h.codes = h.codes[0], h.codes[1:]
			}
			return code, nil
		}),
	)

	h.uc = New(Dependency{
		RepoDB:        h.db,
		RepoMessaging: h.mq,
		OTP:           engine,
		Validator:     v,
		Password:      hash.NewBcrypt(4, ""),
		UID:           sf,
		OID:           &seqID{},
		JWT:           h.jwt,
		Instrument:    instrument.NewNoop(),
		Goroutine:     h.workers,
	})

	return h
}

func (h *harness) register(t *testing.T, username, phone, password string) int64 {
	t.Helper()

	out, err := h.uc.Register(context.Background(), RegisterInput{
		Username:        username,
		Password:        password,
		PasswordConfirm: password,
		PhoneNumber:     phone,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return out.ID
}

func assertBusiness(t *testing.T, err error, wantCode goerror.Code, wantMsg string) *goerror.Error {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v (%T), want *goerror.Error", err, err)
	}
	if gerr.Code() != wantCode {
		t.Fatalf("code = %s, want %s", gerr.Code(), wantCode)
	}
	if wantMsg != "" && !strings.HasPrefix(gerr.Msg(), wantMsg) {
		t.Fatalf("msg = %q, want prefix %q", gerr.Msg(), wantMsg)
	}
	return gerr
}
