// Package polybloom provides a bloom filter over a fixed-size bit array
// with a pluggable set of hash functions, and the numeric procedures used to
// choose its parameters.
//
// A bloom filter is a space-efficient probabilistic data structure that tests
// whether an element is a member of a set. False positive matches are possible,
// but false negatives are not – if the filter says an element is not present,
// it definitely is not. If it says an element might be present, it could be a
// false positive.
//
// # Hashing
//
// [PolynomialHash] is a Horner-scheme polynomial hash over 16-bit digits.
// It takes a multiplier k and a modulus n and returns an index in [0, n).
// Packing two bytes per digit halves the number of multiply-reduce steps
// compared to hashing byte by byte, and the final k^digits term separates
// sequences that are prefixes or suffixes of one another.
//
// Any function with the [HashFunc] signature can be placed in a filter's
// hash set. [XXH3Hash] is provided for callers who want a non-polynomial
// member.
//
// # Multiplier and hash count
//
// The filter calls every function in its set once per operation with the
// caller's k and n. There are two ways to build a filter:
//
//	// One function; k is the polynomial multiplier.
//	f, _ := polybloom.New(65536, polybloom.PolynomialHash)
//	f.Insert([]byte("abc"), 7, 65536)
//
//	// OptimalHashCount functions, each bound to its own multiplier.
//	rng := rand.New(rand.NewPCG(1, 2))
//	g, _ := polybloom.NewOptimal(1000, 10000, rng)
//	g.Insert([]byte("abc"), 0, 10000) // k is ignored by bound functions
//
// Only the second form matches the classic false positive estimate
// (1 - e^(-kn/m))^k with k = [Filter.NumHashes].
//
// # Choosing Parameters
//
// [OptimalHashCount] computes round((m/n) ln 2) for n expected elements in
// m bits. [UniqueMultiplier] draws multipliers from [0, 65535] without
// repetition, returning [ErrMultiplierSpaceExhausted] once every value is
// taken. Randomness always comes from a caller-supplied *rand.Rand so runs
// can be reproduced by seeding.
//
// # Limits
//
// Elements may be at most [MaxElementLen] bytes; longer ones are rejected
// with [ErrElementTooLong] and leave the filter unchanged. The modulus n
// passed to Insert and Contains must not exceed the filter's capacity.
// [NewOptimal] needs one distinct multiplier per hash function, so it fails
// with [ErrMultiplierSpaceExhausted] when the optimal count exceeds 65536.
//
// # Thread Safety
//
// [Filter] is NOT thread-safe. [SyncFilter] wraps one with a read-write
// mutex: concurrent Contains calls share the lock, while Insert, TestAndInsert
// and Clear are exclusive.
package polybloom
