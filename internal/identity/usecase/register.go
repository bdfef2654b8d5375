package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpauth/internal/identity/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

type RegisterInput struct {
	Username        string `validate:"required,username"`
	Password        string `validate:"required,password"`
	PasswordConfirm string `validate:"required"`
	PhoneNumber     string `validate:"required,phone"`
}

type RegisterOutput struct {
	ID int64
}

func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.Password != in.PasswordConfirm {
		return nil, goerror.NewInvalidInput(nil, "password_confirm", msgPasswordMismatch)
	}

	hashedPassword, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	newUser := entity.CreateUser{
		ID:           s.uid.Generate(),
		Username:     in.Username,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: string(hashedPassword),
	}

	err = s.repoDB.CreateUser(ctx, newUser)
	switch {
	case errors.Is(err, entity.ErrUsernameTaken):
		return nil, goerror.NewBusiness(msgUsernameTaken, goerror.CodeConflict)
	case errors.Is(err, entity.ErrPhoneNumberTaken):
		return nil, goerror.NewBusiness(msgPhoneNumberTaken, goerror.CodeConflict)
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo create user", "username", newUser.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RegisterOutput{ID: newUser.ID}, nil
}
