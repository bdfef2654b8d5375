package hash

import (
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes passwords with bcrypt. The configured pepper is appended to
// the plaintext on both Hash and Verify and never reaches the database.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt hasher. cost is clamped into
// [bcrypt.MinCost, bcrypt.MaxCost].
func NewBcrypt(cost int, pepper string) *Bcrypt {
	cost = min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)
	return &Bcrypt{cost: cost, pepper: pepper}
}

// Hash fails with bcrypt.ErrPasswordTooLong when password plus pepper
// exceeds 72 bytes.
func (h *Bcrypt) Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword(h.peppered(password), h.cost)
}

func (h *Bcrypt) Verify(hashed, password string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), h.peppered(password)) == nil
}

func (h *Bcrypt) peppered(password string) []byte {
	return []byte(password + h.pepper)
}
