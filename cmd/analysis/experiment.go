package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"text/tabwriter"

	"github.com/jcalabro/polybloom"
	"go.uber.org/zap"
)

// Mode selects how the filter under test builds its hash set.
type Mode string

const (
	// ModeSingle uses one PolynomialHash whose multiplier is the optimal
	// hash count, as the original experiments did.
	ModeSingle Mode = "single"
	// ModeFamily uses OptimalHashCount polynomial hashes with distinct
	// random multipliers.
	ModeFamily Mode = "family"
)

// Config describes one false positive experiment.
type Config struct {
	Capacity uint32  // Filter size in bits, also the hash modulus
	Ratio    float64 // Inserted elements per bit (a = n/N)
	Trials   int     // Independent fill-and-probe rounds
	Probes   int     // Non-member queries per trial
	Mode     Mode
}

var errInvalidConfig = errors.New("analysis: invalid config")

// Validate checks that cfg describes a runnable experiment.
func (c Config) Validate() error {
	switch {
	case c.Capacity == 0:
		return fmt.Errorf("%w: capacity must be non-zero", errInvalidConfig)
	case c.Ratio <= 0 || c.Ratio > 1:
		return fmt.Errorf("%w: ratio %.3f outside (0, 1]", errInvalidConfig, c.Ratio)
	case c.Trials <= 0:
		return fmt.Errorf("%w: trials must be positive", errInvalidConfig)
	case c.Probes <= 0:
		return fmt.Errorf("%w: probes must be positive", errInvalidConfig)
	case c.Mode != ModeSingle && c.Mode != ModeFamily:
		return fmt.Errorf("%w: unknown mode %q", errInvalidConfig, c.Mode)
	}
	return nil
}

// Items returns the number of elements inserted per trial.
func (c Config) Items() uint32 {
	return uint32(math.Round(c.Ratio * float64(c.Capacity)))
}

// Result summarises an experiment.
type Result struct {
	Ratio       float64
	Items       uint32
	OptimalK    uint32  // round((N/n) ln 2)
	HashCount   uint32  // Functions actually in the filter's hash set
	Empirical   float64 // Mean measured false positive rate
	Theoretical float64 // (1 - e^(-kn/N))^k for HashCount functions
}

// Run fills a filter with random strings and measures how often strings
// that were never inserted are reported present, averaged over cfg.Trials.
// The filter is cleared and reused between trials.
func Run(cfg Config, rng *rand.Rand, log *zap.Logger) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	n := cfg.Items()
	k, err := polybloom.OptimalHashCount(uint64(n), uint64(cfg.Capacity))
	if err != nil {
		return Result{}, err
	}

	var (
		filter     *polybloom.Filter
		multiplier uint32
	)
	switch cfg.Mode {
	case ModeSingle:
		filter, err = polybloom.New(cfg.Capacity, polybloom.PolynomialHash)
		multiplier = k
	case ModeFamily:
		filter, err = polybloom.NewOptimal(n, cfg.Capacity, rng)
	}
	if err != nil {
		return Result{}, err
	}

	log.Debug("starting experiment",
		zap.Uint32("capacity", cfg.Capacity),
		zap.Uint32("items", n),
		zap.Uint32("optimal_k", k),
		zap.Uint32("hash_count", filter.NumHashes()),
		zap.String("mode", string(cfg.Mode)),
	)

	var total float64
	for trial := range cfg.Trials {
		added := make(map[string]struct{}, n)
		for range n {
			s := RandomString(rng)
			added[s] = struct{}{}
			if err := filter.Insert([]byte(s), multiplier, cfg.Capacity); err != nil {
				return Result{}, fmt.Errorf("trial %d: %w", trial, err)
			}
		}

		var tested, positives int
		for tested < cfg.Probes {
			s := RandomString(rng)
			if _, ok := added[s]; ok {
				continue
			}
			tested++

			ok, err := filter.Contains([]byte(s), multiplier, cfg.Capacity)
			if err != nil {
				return Result{}, fmt.Errorf("trial %d: %w", trial, err)
			}
			if ok {
				positives++
			}
		}

		rate := float64(positives) / float64(tested)
		total += rate

		log.Debug("trial complete",
			zap.Int("trial", trial),
			zap.Float64("fp_rate", rate),
			zap.Float64("fill_ratio", filter.FillRatio()),
		)

		filter.Clear()
	}

	return Result{
		Ratio:       cfg.Ratio,
		Items:       n,
		OptimalK:    k,
		HashCount:   filter.NumHashes(),
		Empirical:   total / float64(cfg.Trials),
		Theoretical: polybloom.EstimateFalsePositiveRate(cfg.Capacity, filter.NumHashes(), uint64(n)),
	}, nil
}

// tableSteps is the number of ratios Table sweeps: 0.05, 0.10, ..., 0.50.
const tableSteps = 10

// Table runs cfg once per ratio from 0.05 to 0.50 in steps of 0.05,
// ignoring cfg.Ratio.
func Table(cfg Config, rng *rand.Rand, log *zap.Logger) ([]Result, error) {
	results := make([]Result, 0, tableSteps)
	for i := 1; i <= tableSteps; i++ {
		cfg.Ratio = float64(i) * 0.05

		res, err := Run(cfg, rng, log)
		if err != nil {
			return nil, fmt.Errorf("ratio %.2f: %w", cfg.Ratio, err)
		}
		log.Info("ratio complete",
			zap.Float64("ratio", res.Ratio),
			zap.Float64("empirical", res.Empirical),
			zap.Float64("theoretical", res.Theoretical),
		)
		results = append(results, res)
	}
	return results, nil
}

// WriteTable prints results as aligned columns. s is the unrounded optimal
// hash count (1/a) ln 2.
func WriteTable(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "a\ts\tk\thashes\tempirical p\ttheoretical p")
	for _, r := range results {
		s := (1 / r.Ratio) * math.Ln2
		fmt.Fprintf(tw, "%.2f\t%.4f\t%d\t%d\t%.6f\t%.6f\n",
			r.Ratio, s, r.OptimalK, r.HashCount, r.Empirical, r.Theoretical)
	}
	return tw.Flush()
}
