package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hash hashes a secret and verifies plaintext against a stored hash.
// Verify must compare in constant time.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}

// Password algorithm names accepted by NewPassword.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// NewPassword returns the password hasher named by algorithm. An empty name
// selects bcrypt; a non-positive cost selects bcrypt.DefaultCost.
func NewPassword(algorithm string, cost int, pepper string) (Hash, error) {
	switch algorithm {
	case "", AlgorithmBcrypt:
		if cost <= 0 {
			cost = bcrypt.DefaultCost
		}
		return NewBcrypt(cost, pepper), nil
	case AlgorithmArgon2id:
		return NewArgon2id(pepper), nil
	default:
		return nil, fmt.Errorf("hash: unsupported password algorithm %q", algorithm)
	}
}
