package polybloom

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	// MaxMultiplier is the largest multiplier UniqueMultiplier will draw.
	MaxMultiplier = 1<<16 - 1

	// multiplierSpace is the number of distinct multipliers.
	multiplierSpace = MaxMultiplier + 1

	// maxMultiplierDraws bounds the random draws made by UniqueMultiplier
	// before it falls back to scanning for a free value.
	maxMultiplierDraws = 64

	// ln2 is the natural logarithm of 2.
	ln2 = 0.6931471805599453
	// ln2Squared is ln(2)^2.
	ln2Squared = 0.4804530139182014
)

var (
	// ErrNoElements is returned when the expected element count is zero.
	ErrNoElements = errors.New("polybloom: expected element count must be non-zero")

	// ErrZeroCapacity is returned when the bit array size is zero.
	ErrZeroCapacity = errors.New("polybloom: capacity must be non-zero")

	// ErrCapacityTooLarge is returned when the bits required do not fit in
	// a uint32 capacity.
	ErrCapacityTooLarge = errors.New("polybloom: required capacity exceeds 2^32-1 bits")

	// ErrTooManyHashes is returned when the optimal hash count does not fit
	// in a uint32.
	ErrTooManyHashes = errors.New("polybloom: optimal hash count exceeds 2^32-1")

	// ErrMultiplierSpaceExhausted is returned when every multiplier in
	// [0, MaxMultiplier] has already been used, or when more are requested
	// than remain free.
	ErrMultiplierSpaceExhausted = errors.New("polybloom: multiplier space exhausted")
)

// Multipliers records the multipliers already handed out by UniqueMultiplier.
type Multipliers map[uint32]struct{}

// OptimalHashCount returns the number of hash functions that minimizes the
// false positive rate for n elements in a filter of m bits: round((m/n) ln 2).
func OptimalHashCount(n, m uint64) (uint32, error) {
	if n == 0 {
		return 0, ErrNoElements
	}
	if m == 0 {
		return 0, ErrZeroCapacity
	}

	a := float64(n) / float64(m)
	s := math.Round((1 / a) * ln2)
	if s > math.MaxUint32 {
		return 0, fmt.Errorf("%w: k=%.0f for n=%d, m=%d", ErrTooManyHashes, s, n, m)
	}
	return uint32(s), nil
}

// OptimalCapacity returns the number of bits needed to hold expectedItems
// elements at the target false positive rate: -n ln(p) / ln(2)^2.
func OptimalCapacity(expectedItems uint64, fpRate float64) (uint32, error) {
	if expectedItems == 0 {
		return 0, ErrNoElements
	}
	if fpRate <= 0 {
		fpRate = 0.0001 // default to 0.01%
	}
	if fpRate >= 1 {
		fpRate = 0.99
	}

	bits := math.Ceil(float64(expectedItems) * -math.Log(fpRate) / ln2Squared)
	if bits > math.MaxUint32 {
		return 0, fmt.Errorf("%w: need %.0f bits", ErrCapacityTooLarge, bits)
	}
	return max(uint32(bits), 1), nil
}

// UniqueMultiplier draws a multiplier uniformly from [0, MaxMultiplier] that
// is not yet in used, records it in used and returns it.
//
// Random draws are bounded; if they keep colliding the remaining free values
// are scanned from a random starting point instead.
func UniqueMultiplier(rng *rand.Rand, used Multipliers) (uint32, error) {
	if len(used) >= multiplierSpace {
		return 0, fmt.Errorf("%w: all %d values in use", ErrMultiplierSpaceExhausted, multiplierSpace)
	}

	for range maxMultiplierDraws {
		m := uint32(rng.IntN(multiplierSpace))
		if _, ok := used[m]; !ok {
			used[m] = struct{}{}
			return m, nil
		}
	}

	start := uint32(rng.IntN(multiplierSpace))
	for i := range uint32(multiplierSpace) {
		m := (start + i) % multiplierSpace
		if _, ok := used[m]; !ok {
			used[m] = struct{}{}
			return m, nil
		}
	}

	// Only reachable if used holds values outside the multiplier range.
	return 0, fmt.Errorf("%w: no free value found", ErrMultiplierSpaceExhausted)
}

// Family draws count unique multipliers from used and binds h to each of
// them, yielding count distinct members of the same hash family. It fails
// without drawing when fewer than count multipliers are still free.
func Family(h HashFunc, count uint32, rng *rand.Rand, used Multipliers) ([]HashFunc, error) {
	free := 0
	if len(used) < multiplierSpace {
		free = multiplierSpace - len(used)
	}
	if uint64(count) > uint64(free) {
		return nil, fmt.Errorf("%w: need %d, %d free", ErrMultiplierSpaceExhausted, count, free)
	}

	funcs := make([]HashFunc, 0, count)
	for range count {
		m, err := UniqueMultiplier(rng, used)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, WithMultiplier(h, m))
	}
	return funcs, nil
}

// EstimateFalsePositiveRate estimates the false positive rate of a filter of
// capacity bits with k hash functions after itemsAdded insertions.
// Formula: (1 - e^(-kn/m))^k
func EstimateFalsePositiveRate(capacity uint32, k uint32, itemsAdded uint64) float64 {
	m := float64(capacity)
	n := float64(itemsAdded)
	kf := float64(k)

	if m == 0 || n == 0 {
		return 0
	}

	return math.Pow(1-math.Exp(-kf*n/m), kf)
}
