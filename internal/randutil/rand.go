// Package randutil centralises how the server derives seeded, reproducible
// random sources from a single int64 seed.
package randutil

import rand "math/rand/v2"

// GoldenRatio64 is the mixing constant used to derive an independent seed
// from a base seed (e.g. a deal seed fed a second time to draw the
// landlord seat) without correlating its output to the first draw.
const GoldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The helper centralises how we derive the two 64-bit seeds required by rand/v2
// so that all call sites get reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+GoldenRatio64)))
}

// Derive returns a *rand.Rand seeded from seed XOR'd with salt, for callers
// that need a second independent stream derived from the same base seed.
func Derive(seed int64, salt uint64) *rand.Rand {
	return New(int64(uint64(seed) ^ salt))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
