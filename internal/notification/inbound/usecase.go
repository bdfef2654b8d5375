package inbound

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/notification/usecase"
)

type uc interface {
	SendOTP(ctx context.Context, in usecase.SendOTPInput) error
}
