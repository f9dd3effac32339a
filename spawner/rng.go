package spawner

import (
	"encoding/base64"
	"errors"

	"lukechampine.com/frand"
)

// A Randomizer is the only source of randomness the engine uses. *frand.RNG
// satisfies it; tests may inject anything deterministic.
type Randomizer interface {
	Intn(n int) int
}

var ErrBadSeed = errors.New("seed must decode to 32 bytes")

// NewSeededRNG returns a deterministic ChaCha RNG for the given seed.
func NewSeededRNG(seed [32]byte) *frand.RNG {
	return frand.NewCustom(seed[:], 1024, 12)
}

// RandomSeed draws a fresh seed from the system entropy pool.
func RandomSeed() [32]byte {
	return frand.Entropy256()
}

func EncodeSeed(seed [32]byte) string {
	return base64.StdEncoding.EncodeToString(seed[:])
}

// DecodeSeed is the inverse of EncodeSeed.
func DecodeSeed(s string) ([32]byte, error) {
	var seed [32]byte
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return seed, err
	}
	if len(b) != 32 {
		return seed, ErrBadSeed
	}
	copy(seed[:], b)
	return seed, nil
}

// chance returns true with probability p.
func chance(rng Randomizer, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rng.Intn(1000) < int(p*1000)
}
