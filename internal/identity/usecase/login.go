package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shandysiswandi/otpauth/internal/identity/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
	"github.com/shandysiswandi/otpauth/internal/pkg/ratelimit"
)

type LoginInput struct {
	Identifier string `validate:"required,max=150"`
	Password   string `validate:"required,max=72"`
}

type LoginOutput struct {
	Detail    string
	ExpiresAt time.Time
}

// Login checks the password and sends a fresh code to the account phone.
// The SMS goes out in the background; the response does not wait for it.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.authenticate(ctx, in.Identifier, in.Password)
	if err != nil {
		return nil, err
	}

	ch, err := s.otp.Issue(ctx, user.Username)
	var rlErr *ratelimit.RateLimitedError
	if errors.As(err, &rlErr) {
		slog.WarnContext(ctx, "otp issuance rate limited", "user_id", user.ID, "retry_after", rlErr.RetryAfter)
		secs := int64(math.Ceil(rlErr.RetryAfter.Seconds()))
		return nil, goerror.NewRateLimited(fmt.Sprintf(msgRateLimited, secs), rlErr.RetryAfter)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.dispatchOTP(ctx, user, ch)

	return &LoginOutput{Detail: msgCodeSent, ExpiresAt: ch.ExpiresAt}, nil
}

func (s *Usecase) dispatchOTP(ctx context.Context, user *entity.User, ch otp.Challenge) {
	evt := OTPDispatchEvent{
		DispatchID:  s.oid.Generate(),
		UserID:      user.ID,
		Username:    user.Username,
		PhoneNumber: user.PhoneNumber,
		Code:        ch.Code,
		ExpiresAt:   ch.ExpiresAt,
	}

	err := s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishOTPDispatch(ctx, evt); err != nil {
			return fmt.Errorf("publish otp dispatch %s for user %d: %w", evt.DispatchID, evt.UserID, err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to schedule otp dispatch", "dispatch_id", evt.DispatchID, "user_id", evt.UserID, "error", err)
	}
}
