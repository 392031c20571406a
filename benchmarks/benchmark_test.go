package benchmarks

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	bab "github.com/bits-and-blooms/bloom/v3"
	"github.com/cespare/xxhash/v2"
	atomicbloom "github.com/ericvolp12/atomic-bloom"
	"github.com/greatroar/blobloom"
	"github.com/jcalabro/polybloom"
)

const (
	benchItems  = 1_000_000
	benchFPRate = 0.01
)

// Pre-generate test data to avoid measuring string generation
var testKeys [][]byte

func init() {
	testKeys = make([][]byte, benchItems)
	for i := range benchItems {
		testKeys[i] = fmt.Appendf(nil, "key-%d", i)
	}
}

// newPolybloom returns a filter sized like the other libraries' estimates,
// along with its capacity for use as the modulus.
func newPolybloom(tb testing.TB, items uint64, funcs ...polybloom.HashFunc) (*polybloom.Filter, uint32) {
	tb.Helper()

	capacity, err := polybloom.OptimalCapacity(items, benchFPRate)
	if err != nil {
		tb.Fatal(err)
	}

	var f *polybloom.Filter
	if len(funcs) == 0 {
		f, err = polybloom.NewOptimal(uint32(items), capacity, rand.New(rand.NewPCG(1, 2)))
	} else {
		f, err = polybloom.New(capacity, funcs...)
	}
	if err != nil {
		tb.Fatal(err)
	}
	return f, capacity
}

// ============================================================================
// Sequential Insert Benchmarks
// ============================================================================

func BenchmarkInsertSequential_Polybloom(b *testing.B) {
	f, n := newPolybloom(b, benchItems)
	b.ResetTimer()
	for i := range b.N {
		_ = f.Insert(testKeys[i%benchItems], 0, n)
	}
}

func BenchmarkInsertSequential_PolybloomSingle(b *testing.B) {
	f, n := newPolybloom(b, benchItems, polybloom.PolynomialHash)
	b.ResetTimer()
	for i := range b.N {
		_ = f.Insert(testKeys[i%benchItems], 7, n)
	}
}

func BenchmarkInsertSequential_PolybloomXXH3(b *testing.B) {
	f, n := newPolybloom(b, benchItems, polybloom.XXH3Hash)
	b.ResetTimer()
	for i := range b.N {
		_ = f.Insert(testKeys[i%benchItems], 7, n)
	}
}

func BenchmarkInsertSequential_BitsAndBlooms(b *testing.B) {
	f := bab.NewWithEstimates(benchItems, benchFPRate)
	b.ResetTimer()
	for i := range b.N {
		f.Add(testKeys[i%benchItems])
	}
}

func BenchmarkInsertSequential_AtomicBloom(b *testing.B) {
	f := atomicbloom.NewWithEstimates(benchItems, benchFPRate)
	b.ResetTimer()
	for i := range b.N {
		f.Add(testKeys[i%benchItems])
	}
}

func BenchmarkInsertSequential_Blobloom(b *testing.B) {
	f := blobloom.NewOptimized(blobloom.Config{
		Capacity: benchItems,
		FPRate:   benchFPRate,
	})
	b.ResetTimer()
	for i := range b.N {
		// blobloom requires pre-hashing
		h := xxhash.Sum64(testKeys[i%benchItems])
		f.Add(h)
	}
}

// ============================================================================
// Sequential Contains Benchmarks
// ============================================================================

func BenchmarkContainsSequential_Polybloom(b *testing.B) {
	f, n := newPolybloom(b, benchItems)
	for i := range benchItems {
		_ = f.Insert(testKeys[i], 0, n)
	}
	b.ResetTimer()
	for i := range b.N {
		_, _ = f.Contains(testKeys[i%benchItems], 0, n)
	}
}

func BenchmarkContainsSequential_PolybloomXXH3(b *testing.B) {
	f, n := newPolybloom(b, benchItems, polybloom.XXH3Hash)
	for i := range benchItems {
		_ = f.Insert(testKeys[i], 7, n)
	}
	b.ResetTimer()
	for i := range b.N {
		_, _ = f.Contains(testKeys[i%benchItems], 7, n)
	}
}

func BenchmarkContainsSequential_BitsAndBlooms(b *testing.B) {
	f := bab.NewWithEstimates(benchItems, benchFPRate)
	for i := range benchItems {
		f.Add(testKeys[i])
	}
	b.ResetTimer()
	for i := range b.N {
		f.Test(testKeys[i%benchItems])
	}
}

func BenchmarkContainsSequential_AtomicBloom(b *testing.B) {
	f := atomicbloom.NewWithEstimates(benchItems, benchFPRate)
	for i := range benchItems {
		f.Add(testKeys[i])
	}
	b.ResetTimer()
	for i := range b.N {
		f.Test(testKeys[i%benchItems])
	}
}

func BenchmarkContainsSequential_Blobloom(b *testing.B) {
	f := blobloom.NewOptimized(blobloom.Config{
		Capacity: benchItems,
		FPRate:   benchFPRate,
	})
	// Pre-hash keys for fair comparison
	hashes := make([]uint64, benchItems)
	for i := range benchItems {
		hashes[i] = xxhash.Sum64(testKeys[i])
		f.Add(hashes[i])
	}
	b.ResetTimer()
	for i := range b.N {
		f.Has(hashes[i%benchItems])
	}
}

// ============================================================================
// Parallel Benchmarks (RWMutex vs atomics)
// ============================================================================

func BenchmarkContainsParallel_PolybloomSync(b *testing.B) {
	inner, n := newPolybloom(b, benchItems)
	f := polybloom.NewSync(inner)
	for i := range benchItems {
		_ = f.Insert(testKeys[i], 0, n)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = f.Contains(testKeys[i%benchItems], 0, n)
			i++
		}
	})
}

func BenchmarkContainsParallel_AtomicBloom(b *testing.B) {
	f := atomicbloom.NewWithEstimates(benchItems, benchFPRate)
	for i := range benchItems {
		f.Add(testKeys[i])
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			f.Test(testKeys[i%benchItems])
			i++
		}
	})
}

func BenchmarkMixed_PolybloomSync(b *testing.B) {
	inner, n := newPolybloom(b, benchItems)
	f := polybloom.NewSync(inner)
	// Pre-populate half
	for i := 0; i < benchItems/2; i++ {
		_ = f.Insert(testKeys[i], 0, n)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%2 == 0 {
				_ = f.Insert(testKeys[(benchItems/2+i)%benchItems], 0, n)
			} else {
				_, _ = f.Contains(testKeys[i%benchItems], 0, n)
			}
			i++
		}
	})
}

func BenchmarkMixed_AtomicBloom(b *testing.B) {
	f := atomicbloom.NewWithEstimates(benchItems, benchFPRate)
	// Pre-populate half
	for i := 0; i < benchItems/2; i++ {
		f.Add(testKeys[i])
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%2 == 0 {
				f.Add(testKeys[(benchItems/2+i)%benchItems])
			} else {
				f.Test(testKeys[i%benchItems])
			}
			i++
		}
	})
}

// ============================================================================
// Memory Allocation Benchmarks
// ============================================================================

func BenchmarkInsertAlloc_Polybloom(b *testing.B) {
	f, n := newPolybloom(b, benchItems)
	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		_ = f.Insert(testKeys[i%benchItems], 0, n)
	}
}

func BenchmarkInsertAlloc_BitsAndBlooms(b *testing.B) {
	f := bab.NewWithEstimates(benchItems, benchFPRate)
	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		f.Add(testKeys[i%benchItems])
	}
}

// ============================================================================
// Throughput Test (items per second)
// ============================================================================

func BenchmarkThroughput_PolybloomSync(b *testing.B) {
	const goroutines = 8
	const itemsPerGoroutine = 100000

	inner, n := newPolybloom(b, goroutines*itemsPerGoroutine)
	f := polybloom.NewSync(inner)

	b.ResetTimer()
	for range b.N {
		var wg sync.WaitGroup
		wg.Add(goroutines)
		for g := range goroutines {
			go func(gid int) {
				defer wg.Done()
				base := gid * itemsPerGoroutine
				for i := range itemsPerGoroutine {
					_ = f.Insert(testKeys[(base+i)%benchItems], 0, n)
				}
			}(g)
		}
		wg.Wait()
	}
	b.ReportMetric(float64(goroutines*itemsPerGoroutine), "items/op")
}

// ============================================================================
// False Positive Rate Comparison
// ============================================================================

// randomKey returns an alphanumeric key of 1 to 100 bytes.
func randomKey(rng *rand.Rand) []byte {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 1+rng.IntN(polybloom.MaxElementLen))
	for i := range b {
		b[i] = alphabet[rng.IntN(len(alphabet))]
	}
	return b
}

// TestFalsePositiveRateComparison measures the polynomial hash family against
// bits-and-blooms using the same bit count and hash function count.
func TestFalsePositiveRateComparison(t *testing.T) {
	const items = 10_000
	const probes = 50_000

	f, n := newPolybloom(t, items)
	ref := bab.New(uint(n), uint(f.NumHashes()))

	rng := rand.New(rand.NewPCG(3, 4))
	added := make(map[string]struct{}, items)
	for len(added) < items {
		key := randomKey(rng)
		if _, ok := added[string(key)]; ok {
			continue
		}
		added[string(key)] = struct{}{}
		if err := f.Insert(key, 0, n); err != nil {
			t.Fatal(err)
		}
		ref.Add(key)
	}

	var tested, fpPoly, fpRef int
	for tested < probes {
		key := randomKey(rng)
		if _, ok := added[string(key)]; ok {
			continue
		}
		tested++
		if ok, _ := f.Contains(key, 0, n); ok {
			fpPoly++
		}
		if ref.Test(key) {
			fpRef++
		}
	}

	polyRate := float64(fpPoly) / probes
	refRate := float64(fpRef) / probes
	expected := f.EstimatedFalsePositiveRate()

	// Allow a wide margin for sampling noise and hash quality.
	if polyRate > expected*3+0.005 {
		t.Errorf("false positive rate too high: got %.4f, want <= %.4f", polyRate, expected*3+0.005)
	}

	t.Logf("polybloom: %.4f, bits-and-blooms: %.4f, theoretical: %.4f (m=%d, k=%d)",
		polyRate, refRate, expected, n, f.NumHashes())
}
