// Package rng provides the seeded random stream shared by field generation,
// particle spawning and respawning.
package rng

import (
	"fmt"
	"math/rand"
)

// MaxSeed is the largest accepted seed.
const MaxSeed = 99_999_999

// RNG is a deterministic pseudo-random stream. It is not safe for concurrent
// use; callers that fan out work must draw what they need up front.
type RNG struct {
	seed  int64
	src   *rand.Rand
	draws int
}

// New creates a stream seeded with seed.
func New(seed int64) (*RNG, error) {
	if err := ValidateSeed(seed); err != nil {
		return nil, err
	}
	r := &RNG{}
	r.SetSeed(seed)
	return r, nil
}

// MustNew is like New but panics on an out-of-range seed.
func MustNew(seed int64) *RNG {
	r, err := New(seed)
	if err != nil {
		panic(err)
	}
	return r
}

// ValidateSeed reports whether seed is within [0, MaxSeed].
func ValidateSeed(seed int64) error {
	if seed < 0 || seed > MaxSeed {
		return fmt.Errorf("seed %d out of range [0, %d]", seed, MaxSeed)
	}
	return nil
}

// NewSeed returns a random seed in [0, MaxSeed] from the process-wide source.
func NewSeed() int64 {
	return rand.Int63n(MaxSeed + 1)
}

// SetSeed restarts the stream from seed.
func (r *RNG) SetSeed(seed int64) {
	r.seed = seed
	r.src = rand.New(rand.NewSource(seed))
	r.draws = 0
}

// Reseed picks a fresh random seed and restarts the stream from it.
func (r *RNG) Reseed() int64 {
	r.SetSeed(NewSeed())
	return r.seed
}

// Reset restarts the stream from the last seed.
func (r *RNG) Reset() {
	r.SetSeed(r.seed)
}

// Seed returns the seed the stream was last started from.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Draws returns how many values have been drawn since the last (re)seed.
func (r *RNG) Draws() int {
	return r.draws
}

// Skip discards n values.
func (r *RNG) Skip(n int) {
	for i := 0; i < n; i++ {
		r.Float64()
	}
}

// Float64 returns the next value in [0, 1).
func (r *RNG) Float64() float64 {
	r.draws++
	return r.src.Float64()
}

// Range returns the next value scaled to [lo, hi).
func (r *RNG) Range(lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// Int63 returns a non-negative 63-bit value derived from a single draw.
func (r *RNG) Int63() int64 {
	return int64(r.Float64() * (1 << 53))
}

// NextSeed draws a value usable as the seed of a derived stream.
func (r *RNG) NextSeed() int64 {
	return int64(r.Float64() * (MaxSeed + 1))
}
