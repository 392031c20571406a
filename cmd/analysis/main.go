// Command analysis measures the empirical false positive rate of polybloom
// filters filled with random alphanumeric strings and compares it with the
// theoretical estimate.
//
//	analysis -capacity 10000 -ratio 0.1 -trials 100
//	analysis -table -mode family
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"go.uber.org/zap"
)

func main() {
	var (
		cfg   Config
		mode  string
		seed  uint64
		table bool
		debug bool
	)

	capacity := flag.Uint("capacity", 10000, "filter size in bits (also the hash modulus)")
	flag.Float64Var(&cfg.Ratio, "ratio", 0.1, "inserted elements per bit")
	flag.IntVar(&cfg.Trials, "trials", 100, "independent trials per ratio")
	flag.IntVar(&cfg.Probes, "probes", 1000, "non-member queries per trial")
	flag.StringVar(&mode, "mode", string(ModeSingle), "hash set: single or family")
	flag.Uint64Var(&seed, "seed", 1, "random seed")
	flag.BoolVar(&table, "table", false, "sweep ratios 0.05 to 0.50")
	flag.BoolVar(&debug, "debug", false, "log every trial")
	flag.Parse()

	cfg.Mode = Mode(mode)

	log, err := newLogger(debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if !fitsUint32(*capacity) {
		log.Fatal("capacity does not fit in 32 bits", zap.Uint("capacity", *capacity))
	}
	cfg.Capacity = uint32(*capacity)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var results []Result
	if table {
		results, err = Table(cfg, rng, log)
	} else {
		var res Result
		res, err = Run(cfg, rng, log)
		results = []Result{res}
	}
	if err != nil {
		log.Fatal("experiment failed", zap.Error(err))
	}

	if err := WriteTable(os.Stdout, results); err != nil {
		log.Fatal("failed to write results", zap.Error(err))
	}
}

// fitsUint32 reports whether a flag value can be used as a capacity.
func fitsUint32(v uint) bool {
	return uint64(v) <= math.MaxUint32
}

// newLogger returns a production logger, or a development logger at debug
// level when debug is set.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
