package uid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
)

// ObjectID generates 12-byte ids rendered as 24 hex characters:
// 4 bytes of unix seconds, 5 random bytes fixed per process and a 3-byte
// counter. Ids sort by creation second and never collide across replicas
// unless two processes draw the same 40-bit random value.
type ObjectID struct {
	clock   clock.Clocker
	process [5]byte
	counter atomic.Uint32
}

// NewObjectID seeds the process bytes and counter from crypto/rand.
func NewObjectID(c clock.Clocker) (*ObjectID, error) {
	if c == nil {
		c = clock.New()
	}

	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("uid: object id seed: %w", err)
	}

	g := &ObjectID{clock: c}
	copy(g.process[:], seed[:5])
	g.counter.Store(uint32(seed[5])<<16 | uint32(seed[6])<<8 | uint32(seed[7]))
	return g, nil
}

func (g *ObjectID) Generate() string {
	var raw [12]byte

	binary.BigEndian.PutUint32(raw[0:4], uint32(g.clock.Now().Unix())) //nolint:gosec // wraps in 2106
	copy(raw[4:9], g.process[:])

	c := g.counter.Add(1)
	raw[9] = byte(c >> 16)
	raw[10] = byte(c >> 8)
	raw[11] = byte(c)

	return hex.EncodeToString(raw[:])
}
