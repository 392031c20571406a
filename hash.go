package polybloom

import "github.com/zeebo/xxh3"

// HashFunc maps data to an index in [0, n) using multiplier k.
//
// Implementations must be pure and must not retain data after returning.
type HashFunc func(data []byte, k, n uint32) uint32

// PolynomialHash is a Horner-scheme polynomial hash over 16-bit digits.
//
// Bytes are consumed from the end toward the start in pairs, the earlier
// byte of each pair forming the high half of the digit. When the length is
// odd the final (leading) digit is the single first byte. Alongside the
// running hash it accumulates Y = k^digits mod n, which is added to the
// result so that sequences differing only in length hash apart.
//
// Empty data hashes to 1 mod n. n must be non-zero.
func PolynomialHash(data []byte, k, n uint32) uint32 {
	mod := uint64(n)
	mul := uint64(k)

	var h uint64
	y := uint64(1)

	for i := len(data) - 1; i >= 0; i -= 2 {
		digit := uint64(data[i])
		if i > 0 {
			digit |= uint64(data[i-1]) << 8
		}

		// h, y < mod <= 2^32 and mul < 2^32, so neither product overflows.
		h = (h*mul + digit) % mod
		y = (y * mul) % mod
	}

	return uint32((h + y) % mod)
}

// XXH3Hash hashes data with xxh3 seeded by k and reduces the result mod n.
//
// It is not a polynomial hash; it exists for filters that mix a distinct
// function into their hash set.
func XXH3Hash(data []byte, k, n uint32) uint32 {
	return uint32(xxh3.HashSeed(data, uint64(k)) % uint64(n))
}

// WithMultiplier binds h to the fixed multiplier m. The returned function
// ignores the k it is called with.
func WithMultiplier(h HashFunc, m uint32) HashFunc {
	return func(data []byte, _, n uint32) uint32 {
		return h(data, m, n)
	}
}
