package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpauth/internal/identity/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

// authenticate resolves identifier as a username or phone number and checks
// password against the stored hash.
func (s *Usecase) authenticate(ctx context.Context, identifier, password string) (*entity.User, error) {
	ctx, span := s.startSpan(ctx, "authenticate")
	defer span.End()

	user, err := s.repoDB.FindByIdentifier(ctx, identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "identifier", identifier)
		return nil, goerror.NewBusiness(msgUserNotFound, goerror.CodeBadRequest)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find user by identifier", "identifier", identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.PasswordHash, password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness(msgWrongPassword, goerror.CodeBadRequest)
	}

	return user, nil
}
