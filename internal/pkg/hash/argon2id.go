package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

// Argon2id hashes passwords with Argon2id into the PHC string format
// "$argon2id$v=19$m=...,t=...,p=...$salt$key".
type Argon2id struct {
	params   argon2Params
	saltLen  int
	keyLen   uint32
	pepper   string
	inFlight chan struct{} // bounds concurrent derivations; each one holds params.memory KiB
}

// NewArgon2id returns an Argon2id hasher using 32 MiB, 3 passes and 2 lanes,
// with at most two derivations running at the same time.
func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		params:   argon2Params{memory: 32 * 1024, iterations: 3, parallelism: 2},
		saltLen:  16,
		keyLen:   32,
		pepper:   pepper,
		inFlight: make(chan struct{}, 2),
	}
}

func (a *Argon2id) Hash(password string) ([]byte, error) {
	salt := make([]byte, a.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: argon2id salt: %w", err)
	}

	key := a.derive(password, salt, a.params, a.keyLen)

	b64 := base64.RawStdEncoding
	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.params.memory, a.params.iterations, a.params.parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key))

	return []byte(encoded), nil
}

// Verify recomputes the key with the parameters stored in hashed, so hashes
// produced under older settings keep verifying.
func (a *Argon2id) Verify(hashed, password string) bool {
	if password == "" {
		return false
	}

	params, salt, want, ok := decodeArgon2id(hashed)
	if !ok {
		return false
	}

	got := a.derive(password, salt, params, uint32(len(want))) //nolint:gosec // key length is small
	return subtle.ConstantTimeCompare(want, got) == 1
}

func (a *Argon2id) derive(password string, salt []byte, p argon2Params, keyLen uint32) []byte {
	a.inFlight <- struct{}{}
	defer func() { <-a.inFlight }()

	return argon2.IDKey([]byte(password+a.pepper), salt, p.iterations, p.memory, p.parallelism, keyLen)
}

func decodeArgon2id(hashed string) (argon2Params, []byte, []byte, bool) {
	var p argon2Params

	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, nil, nil, false
	}
	if p.memory == 0 || p.iterations == 0 || p.parallelism == 0 {
		return p, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, false
	}

	return p, salt, key, true
}
