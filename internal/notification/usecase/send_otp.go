package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpauth/internal/notification/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpauth/internal/pkg/sms"
	"github.com/shandysiswandi/otpauth/internal/pkg/valueobject"
)

type SendOTPInput struct {
	DispatchID  string    `validate:"required"`
	UserID      int64     `validate:"required,gt=0"`
	PhoneNumber string    `validate:"required,phone"`
	Code        string    `validate:"required,otp_code"`
	ExpiresAt   time.Time `validate:"required"`
}

// SendOTP delivers one dispatched code. Each DispatchID is sent at most once
// even when the broker redelivers it. A provider failure is returned so the
// broker retries, and the dispatch lock is released for that retry.
func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) error {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "dispatch_id", in.DispatchID, "error", err)
		return nil
	}

	recipient := sms.MaskPhone(in.PhoneNumber)

	if !s.clock.Now().Before(in.ExpiresAt) {
		slog.WarnContext(ctx, "otp expired before delivery", "dispatch_id", in.DispatchID, "recipient", recipient)
		s.recordDelivery(ctx, in, entity.DeliveryStatusExpired, 0, valueobject.JSONMap{"expires_at": in.ExpiresAt})
		return nil
	}

	err := s.idempotency.Exec(ctx, "sms:"+in.DispatchID, func(ctx context.Context) error {
		res, err := s.sms.Send(ctx, sms.Message{Recipient: in.PhoneNumber, Code: in.Code})
		if err != nil {
			s.recordDelivery(ctx, in, entity.DeliveryStatusFailed, attemptsOf(res), valueobject.JSONMap{"error": err.Error()})
			return err
		}

		s.recordDelivery(ctx, in, entity.DeliveryStatusSent, attemptsOf(res), valueobject.JSONMap(res.Response))
		slog.InfoContext(ctx, "otp sms sent", "dispatch_id", in.DispatchID, "recipient", recipient, "attempts", attemptsOf(res))
		return nil
	}, idempotency.WithReleaseOnError(), idempotency.WithStateTTL(s.dedupTTL))

	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "otp dispatch already handled", "dispatch_id", in.DispatchID, "reason", err)
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to send otp sms", "dispatch_id", in.DispatchID, "recipient", recipient, "error", err)
		return err
	}

	return nil
}

func attemptsOf(res *sms.Result) int {
	if res == nil || res.Attempts < 1 {
		return 1
	}
	return res.Attempts
}

// recordDelivery writes the delivery log. A failed write is only logged so it
// never triggers a second SMS.
func (s *Usecase) recordDelivery(ctx context.Context, in SendOTPInput, status entity.DeliveryStatus, attempts int, resp valueobject.JSONMap) {
	err := s.repoDB.CreateSMSDeliveryLog(ctx, entity.CreateSMSDeliveryLog{
		ID:               s.uid.Generate(),
		DispatchID:       in.DispatchID,
		UserID:           in.UserID,
		Recipient:        sms.MaskPhone(in.PhoneNumber),
		Status:           status,
		Attempts:         attempts,
		ProviderResponse: resp,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create sms delivery log", "dispatch_id", in.DispatchID, "status", status.String(), "error", err)
	}
}
