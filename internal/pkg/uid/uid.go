// Package uid generates identifiers: snowflake numbers for user rows, UUIDv7
// strings for token ids and correlation ids, and object ids for OTP
// dispatch messages.
package uid

import (
	"github.com/google/uuid"
)

// NumberID generates unique int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}

// UUID generates time-ordered UUIDv7 strings.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

// Generate falls back to a random UUIDv4 if the v7 clock sequence fails.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
