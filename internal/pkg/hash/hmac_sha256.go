package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 produces deterministic hex HMAC-SHA256 digests. The OTP engine
// stores these instead of raw codes, so equal inputs must give equal digests.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash never fails.
func (s *HMACSHA256) Hash(value string) ([]byte, error) {
	return []byte(s.digest(value)), nil
}

func (s *HMACSHA256) Verify(hashed, value string) bool {
	want, err := hex.DecodeString(hashed)
	if err != nil {
		return false
	}
	return hmac.Equal(want, s.sum(value))
}

func (s *HMACSHA256) digest(value string) string {
	return hex.EncodeToString(s.sum(value))
}

func (s *HMACSHA256) sum(value string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(value))
	return mac.Sum(nil)
}
