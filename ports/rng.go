package ports

import (
	"math/rand"
)

// RNG provides seeded random number generation for deterministic bootstrap
// operations. Every randomized routine takes its generator from a named
// stream so identical (seed, name) pairs reproduce identical resamples, and
// concurrent analyses never share a generator.
type RNG interface {
	// Stream returns a deterministic generator for a named operation.
	// Streams with different names are independent.
	Stream(name string) *rand.Rand

	// Seed returns the base seed this source was built from
	Seed() int64
}
