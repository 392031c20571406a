package polybloom

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// MaxElementLen is the longest element, in bytes, a filter accepts.
const MaxElementLen = 100

var (
	// ErrElementTooLong is returned when an element exceeds MaxElementLen.
	ErrElementTooLong = errors.New("polybloom: element exceeds 100 bytes")

	// ErrNoHashFuncs is returned when a filter is created without hash functions.
	ErrNoHashFuncs = errors.New("polybloom: at least one hash function is required")

	// ErrInvalidModulus is returned when the modulus passed to Insert or
	// Contains is zero or larger than the filter's capacity.
	ErrInvalidModulus = errors.New("polybloom: invalid modulus")
)

// Filter is a non-thread-safe bloom filter over a fixed-size bit array.
//
// Each operation invokes every function in the filter's hash set exactly once
// with the caller's multiplier k and modulus n. Elements are never retained;
// only the bit positions derived from them persist.
type Filter struct {
	bits     *bitset.BitSet
	capacity uint32     // Size of the bit array in bits
	funcs    []HashFunc // Immutable for the filter's lifetime
	count    uint64     // Successful inserts since the last Clear
}

// New creates an empty filter of capacity bits using funcs as its hash set.
func New(capacity uint32, funcs ...HashFunc) (*Filter, error) {
	if capacity == 0 {
		return nil, ErrZeroCapacity
	}
	if len(funcs) == 0 {
		return nil, ErrNoHashFuncs
	}

	return &Filter{
		bits:     bitset.New(uint(capacity)),
		capacity: capacity,
		funcs:    append([]HashFunc(nil), funcs...),
	}, nil
}

// NewOptimal creates a filter sized for expectedItems elements in capacity
// bits. Its hash set holds OptimalHashCount members of the PolynomialHash
// family, each bound to a distinct multiplier drawn from rng, so the k
// passed to Insert and Contains has no effect on the bits chosen.
func NewOptimal(expectedItems, capacity uint32, rng *rand.Rand) (*Filter, error) {
	k, err := OptimalHashCount(uint64(expectedItems), uint64(capacity))
	if err != nil {
		return nil, err
	}
	k = max(k, 1)

	funcs, err := Family(PolynomialHash, k, rng, Multipliers{})
	if err != nil {
		return nil, err
	}
	return New(capacity, funcs...)
}

// check validates an element and modulus before any bit is touched.
func (f *Filter) check(element []byte, n uint32) error {
	if len(element) > MaxElementLen {
		return fmt.Errorf("%w: got %d bytes", ErrElementTooLong, len(element))
	}
	if n == 0 || n > f.capacity {
		return fmt.Errorf("%w: n=%d, capacity=%d", ErrInvalidModulus, n, f.capacity)
	}
	return nil
}

// Insert adds element to the filter using multiplier k and modulus n.
// A rejected element leaves the filter unchanged.
func (f *Filter) Insert(element []byte, k, n uint32) error {
	if err := f.check(element, n); err != nil {
		return err
	}

	for _, h := range f.funcs {
		f.bits.Set(uint(h(element, k, n)))
	}

	f.count++
	return nil
}

// Contains reports whether element might be in the filter.
// Returns true if the element might be present (with false positive
// probability), or false if it is definitely not present. The guarantee
// only holds when k and n match those used at insertion.
func (f *Filter) Contains(element []byte, k, n uint32) (bool, error) {
	if err := f.check(element, n); err != nil {
		return false, err
	}

	for _, h := range f.funcs {
		if !f.bits.Test(uint(h(element, k, n))) {
			return false, nil
		}
	}

	return true, nil
}

// TestAndInsert reports whether element might already be present, then
// inserts it.
func (f *Filter) TestAndInsert(element []byte, k, n uint32) (bool, error) {
	present, err := f.Contains(element, k, n)
	if err != nil {
		return false, err
	}
	if err := f.Insert(element, k, n); err != nil {
		return false, err
	}
	return present, nil
}

// Clear resets every bit to zero. The hash set is kept.
func (f *Filter) Clear() {
	f.bits.ClearAll()
	f.count = 0
}

// Cap returns the capacity of the filter in bits.
func (f *Filter) Cap() uint32 {
	return f.capacity
}

// NumHashes returns the number of hash functions in the filter's set.
func (f *Filter) NumHashes() uint32 {
	return uint32(len(f.funcs))
}

// Count returns the number of successful inserts since the last Clear.
func (f *Filter) Count() uint64 {
	return f.count
}

// FillRatio returns the proportion of bits that are set.
func (f *Filter) FillRatio() float64 {
	return float64(f.bits.Count()) / float64(f.capacity)
}

// EstimatedFalsePositiveRate estimates the current false positive rate
// based on the number of items added.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	return EstimateFalsePositiveRate(f.capacity, f.NumHashes(), f.count)
}

// SyncFilter is a Filter guarded by a read-write mutex.
//
// Insert, TestAndInsert and Clear take exclusive access to the bit array;
// Contains and the statistics may run concurrently with each other.
type SyncFilter struct {
	mu sync.RWMutex
	f  *Filter
}

// NewSync wraps f for concurrent use. f must not be used directly afterwards.
func NewSync(f *Filter) *SyncFilter {
	return &SyncFilter{f: f}
}

// Insert adds element to the filter.
func (s *SyncFilter) Insert(element []byte, k, n uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Insert(element, k, n)
}

// Contains reports whether element might be in the filter.
func (s *SyncFilter) Contains(element []byte, k, n uint32) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.Contains(element, k, n)
}

// TestAndInsert reports prior presence and inserts element as a single
// critical section.
func (s *SyncFilter) TestAndInsert(element []byte, k, n uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.TestAndInsert(element, k, n)
}

// Clear resets every bit to zero.
func (s *SyncFilter) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f.Clear()
}

// Cap returns the capacity of the filter in bits.
func (s *SyncFilter) Cap() uint32 {
	return s.f.Cap()
}

// NumHashes returns the number of hash functions in the filter's set.
func (s *SyncFilter) NumHashes() uint32 {
	return s.f.NumHashes()
}

// Count returns the number of successful inserts since the last Clear.
func (s *SyncFilter) Count() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.Count()
}

// FillRatio returns the proportion of bits that are set.
func (s *SyncFilter) FillRatio() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.FillRatio()
}

// EstimatedFalsePositiveRate estimates the current false positive rate.
func (s *SyncFilter) EstimatedFalsePositiveRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.EstimatedFalsePositiveRate()
}
