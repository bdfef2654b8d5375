package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
)

type OTPVerifyInput struct {
	Identifier string `validate:"required,max=150"`
	Code       string `validate:"required,otp_code"`
}

type OTPVerifyOutput struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// OTPVerify consumes the pending code and issues a session token pair.
func (s *Usecase) OTPVerify(ctx context.Context, in OTPVerifyInput) (*OTPVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "OTPVerify")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.FindByIdentifier(ctx, in.Identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "identifier", in.Identifier)
		return nil, goerror.NewBusiness(msgUserNotFound, goerror.CodeBadRequest)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find user by identifier", "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.otp.Verify(ctx, user.Username, in.Code)
	switch {
	case errors.Is(err, otp.ErrNoActiveChallenge):
		slog.WarnContext(ctx, "no active otp challenge", "user_id", user.ID)
		return nil, goerror.NewBusiness(msgNoActiveChallenge, goerror.CodeBadRequest)
	case errors.Is(err, otp.ErrInvalidCode):
		slog.WarnContext(ctx, "otp code not match", "user_id", user.ID)
		return nil, goerror.NewBusiness(msgInvalidCode, goerror.CodeBadRequest)
	case err != nil:
		slog.ErrorContext(ctx, "failed to verify otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	pair, err := s.jwt.GeneratePair(jwt.Subject{
		UserID:      user.ID,
		Username:    user.Username,
		PhoneNumber: user.PhoneNumber,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate token pair", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &OTPVerifyOutput{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}
