// Package sms delivers OTP codes to phone numbers.
//
// HTTPProvider posts to a JSON bulk-send API authenticated with an X-Token
// header. LogProvider only writes a log line and is meant for local runs.
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
)

// ErrNotConfigured is returned when a provider lacks its endpoint or token.
var ErrNotConfigured = errors.New("sms: provider not configured")

// Message is one OTP text to deliver.
type Message struct {
	Recipient string
	Code      string
}

// Text renders the body the user receives.
func (m Message) Text() string {
	return fmt.Sprintf(textTemplate, m.Code)
}

const textTemplate = "Код для входа в личный кабинет - %s"

// Result describes the provider's answer to a delivered message.
type Result struct {
	StatusCode int
	Response   map[string]any
	Attempts   int
}

// Provider sends OTP messages.
type Provider interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

// MaskPhone keeps the first and last two digits of a phone number.
func MaskPhone(phone string) string {
	return instrument.MaskPhone(phone)
}

// LogProvider logs the masked recipient instead of sending anything.
type LogProvider struct{}

// NewLogProvider returns a LogProvider.
func NewLogProvider() *LogProvider {
	return &LogProvider{}
}

func (*LogProvider) Send(ctx context.Context, msg Message) (*Result, error) {
	slog.InfoContext(ctx, "sms not sent, log provider in use", "recipient", MaskPhone(msg.Recipient))
	return &Result{Attempts: 1, Response: map[string]any{"provider": "log"}}, nil
}
