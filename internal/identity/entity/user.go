package entity

import (
	"fmt"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

var (
	// ErrUsernameTaken is a conflict on the username unique constraint.
	ErrUsernameTaken = fmt.Errorf("%w: username", goerror.ErrConflict)
	// ErrPhoneNumberTaken is a conflict on the phone number unique constraint.
	ErrPhoneNumberTaken = fmt.Errorf("%w: phone number", goerror.ErrConflict)
)

// User is the credential record of an account.
type User struct {
	ID           int64
	Username     string
	PhoneNumber  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateUser struct {
	ID           int64
	Username     string
	PhoneNumber  string
	PasswordHash string
}
