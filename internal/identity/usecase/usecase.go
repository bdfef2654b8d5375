package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpauth/internal/identity/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgCodeSent          = "Код отправлен на телефон"
	msgRateLimited       = "Новую СМС можно получить через %d сек."
	msgUserNotFound      = "Пользователь не существует, пройдите регистрацию."
	msgWrongPassword     = "Введён неправильный пароль."
	msgNoActiveChallenge = "Код не запрашивался или истёк, запросите новый."
	msgInvalidCode       = "Введён неверный код."
	msgUsernameTaken     = "Пользователь с таким именем уже существует."
	msgPhoneNumberTaken  = "Пользователь с таким номером уже существует."
	msgPasswordMismatch  = "Пароли не совпадают."
	msgInvalidRefresh    = "Недействительный или истёкший токен обновления."
	msgAuthRequired      = "Требуется авторизация."
)

// OTPDispatchEvent is handed to the broker after a code is issued.
type OTPDispatchEvent struct {
	DispatchID  string
	UserID      int64
	Username    string
	PhoneNumber string
	Code        string
	ExpiresAt   time.Time
}

type repoMessaging interface {
	PublishOTPDispatch(ctx context.Context, msg OTPDispatchEvent) error
}

type repoDB interface {
	FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	CreateUser(ctx context.Context, in entity.CreateUser) error
}

type otpEngine interface {
	Issue(ctx context.Context, identity string) (otp.Challenge, error)
	Verify(ctx context.Context, identity, code string) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	otp           otpEngine
	validator     validator.Validator
	password      hash.Hash
	uid           uid.NumberID
	oid           uid.StringID
	jwt           jwt.Issuer
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	OTP           otpEngine
	Validator     validator.Validator
	Password      hash.Hash
	UID           uid.NumberID
	OID           uid.StringID
	JWT           jwt.Issuer
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		otp:           dep.OTP,
		validator:     dep.Validator,
		password:      dep.Password,
		uid:           dep.UID,
		oid:           dep.OID,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}
