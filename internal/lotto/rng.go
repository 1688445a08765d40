package lotto

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Source is the randomness used by the generator and samplers. *rand.Rand
// from math/rand/v2 satisfies it.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// pcgStream decorrelates the second PCG word from the seed.
const pcgStream = 0x9e3779b97f4a7c15

// NewSource returns a deterministic Source for seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}

// MaxSeed is the largest seed a JSON number carries exactly through a
// JavaScript client (2^53 - 1).
const MaxSeed = 1<<53 - 1

// NewSeed returns a random seed in [1, MaxSeed] from crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	for {
		if _, err := crand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("lotto: read random seed: %w", err)
		}
		if s := binary.LittleEndian.Uint64(b[:]) & MaxSeed; s != 0 {
			return s, nil
		}
	}
}
