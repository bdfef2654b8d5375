package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpauth/internal/notification/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/sms"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// DefaultDedupTTL keeps the completed state of a dispatch long enough to
// outlive every redelivery of a code that is itself valid for two minutes.
const DefaultDedupTTL = 10 * time.Minute

type repoDB interface {
	CreateSMSDeliveryLog(ctx context.Context, in entity.CreateSMSDeliveryLog) error
}

type Usecase struct {
	repoDB      repoDB
	sms         sms.Provider
	idempotency idempotency.Idempotency
	dedupTTL    time.Duration
	uid         uid.NumberID
	clock       clock.Clocker
	validator   validator.Validator
	ins         instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	SMS         sms.Provider
	Idempotency idempotency.Idempotency
	DedupTTL    time.Duration
	UID         uid.NumberID
	Clock       clock.Clocker
	Validator   validator.Validator
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	if dep.DedupTTL <= 0 {
		dep.DedupTTL = DefaultDedupTTL
	}

	return &Usecase{
		repoDB:      dep.RepoDB,
		sms:         dep.SMS,
		idempotency: dep.Idempotency,
		dedupTTL:    dep.DedupTTL,
		uid:         dep.UID,
		clock:       dep.Clock,
		validator:   dep.Validator,
		ins:         dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
