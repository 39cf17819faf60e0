// Package builder validates user-supplied parameters, derives table
// dimensions, and instantiates a cuckoofilter.Filter. It generalizes the
// fluent accumulate-then-Finish shape of a Bloom filter builder (AddKey /
// EstimatedSize / Finish) to a configuration-then-Build shape suited to a
// fixed-capacity filter: there is nothing to accumulate before
// construction, so each fluent method instead records one validated
// parameter, and Build performs the single terminal construction step.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashlab/cuckoofilter"
	"github.com/ashlab/cuckoofilter/funnel"
	"github.com/ashlab/cuckoofilter/hashing"
	"github.com/ashlab/cuckoofilter/internal/config"
	"github.com/ashlab/cuckoofilter/internal/index"
	"github.com/ashlab/cuckoofilter/internal/telemetry"
)

const (
	defaultFPP                 = 0.03
	defaultExpectedConcurrency = 16
)

// Builder accumulates validated construction parameters for a
// cuckoofilter.Filter[T]. Build performs all cross-field validation that
// cannot be checked incrementally (hash-width-vs-table-size, tagBits
// bounds); Build and Config are the only methods that return an error.
type Builder[T any] struct {
	funnel       funnel.Funnel[T]
	maxKeys      int
	fpp          float64
	algorithm    hashing.Algorithm
	algorithmSet bool
	salt1        uint64
	salt2        uint64
	expConc      int
	seed         int64

	logger      *zerolog.Logger
	logInterval time.Duration
	logRate     int

	err error
}

// New starts a Builder for items funneled by f, sized for maxKeys items.
// maxKeys must be greater than 1; invalid values surface as an error from
// Build, not from New, so the fluent chain never needs a nil check
// mid-chain.
func New[T any](f funnel.Funnel[T], maxKeys int) *Builder[T] {
	b := &Builder[T]{
		funnel:    f,
		maxKeys:   maxKeys,
		fpp:       defaultFPP,
		algorithm: hashing.Murmur3_32,
		expConc:   defaultExpectedConcurrency,
	}
	if maxKeys <= 1 {
		b.err = fmt.Errorf("builder: maxKeys must be > 1, got %d", maxKeys)
	}
	return b
}

// FPP sets the target false-positive probability, in (0, 0.25).
func (b *Builder[T]) FPP(fpp float64) *Builder[T] {
	if fpp <= 0 || fpp >= 0.25 {
		b.err = fmt.Errorf("builder: fpp must be in (0, 0.25), got %f", fpp)
		return b
	}
	b.fpp = fpp
	return b
}

// Algorithm selects the hash algorithm and its two salts. Calling it opts
// out of the automatic Murmur3_32-to-Murmur3_128 upgrade Config performs for
// large tables: the caller has taken responsibility for picking a width
// wide enough for their own maxKeys/fpp.
func (b *Builder[T]) Algorithm(algo hashing.Algorithm, salt1, salt2 uint64) *Builder[T] {
	if !hashing.Valid(algo) {
		b.err = fmt.Errorf("builder: unknown hash algorithm %v", algo)
		return b
	}
	b.algorithm, b.salt1, b.salt2 = algo, salt1, salt2
	b.algorithmSet = true
	return b
}

// Concurrency sets expectedConcurrency, which must be a positive power of
// two; it sizes the segment lock array and the RNG shard pool.
func (b *Builder[T]) Concurrency(expectedConcurrency int) *Builder[T] {
	if expectedConcurrency <= 0 || expectedConcurrency&(expectedConcurrency-1) != 0 {
		b.err = fmt.Errorf("builder: expectedConcurrency must be a positive power of two, got %d", expectedConcurrency)
		return b
	}
	b.expConc = expectedConcurrency
	return b
}

// Seed pins the RNG pool's seed, making eviction-loop slot selection
// reproducible for a fixed sequence of operations.
func (b *Builder[T]) Seed(seed int64) *Builder[T] {
	b.seed = seed
	return b
}

// Logger enables the periodic telemetry snapshot, logged at interval
// through logger and paced to at most one flush per interval regardless
// of how often the caller's process wakes the ticker.
func (b *Builder[T]) Logger(logger *zerolog.Logger, interval time.Duration) *Builder[T] {
	b.logger, b.logInterval = logger, interval
	b.logRate = 1
	return b
}

// Config exposes the resolved, validated configuration this Builder would
// use, without constructing a filter. Useful for persist's YAML sidecar,
// which records a filter's dimensions independent of its binary snapshot.
// TagBits and NumBuckets are left zero here and derived by cfg.Adjust(),
// the same derivation internal/config.Load applies to a hand-written YAML
// file, so a builder-produced config and a hand-edited one size identically.
func (b *Builder[T]) Config() (*config.Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	cfg := &config.Config{
		Table: config.TableCfg{
			ExpectedItems:     uint64(b.maxKeys),
			FalsePositiveRate: b.fpp,
		},
		Concurrency: config.ConcurrencyCfg{
			ExpectedConcurrency: b.expConc,
			RandomSeed:          b.seed,
		},
		Hash: config.HashCfg{
			Algorithm: b.algorithm.String(),
			Salt1:     b.salt1,
			Salt2:     b.salt2,
		},
	}
	if b.logger != nil {
		cfg.Telemetry = &config.TelemetryCfg{Enabled_: true, Interval: b.logInterval, RatePerS: b.logRate}
	}
	cfg.Adjust()

	// A caller who never picked an algorithm gets Murmur3_32 by default, the
	// cheapest option; but a 32-bit code can only address so many index bits
	// plus tag bits. Once the derived table geometry outgrows that budget,
	// upgrade to a wide hash rather than let index.New reject it. A caller
	// who explicitly chose an algorithm is assumed to have sized it already.
	if !b.algorithmSet && b.algorithm == hashing.Murmur3_32 {
		if index.IndexBits(cfg.Table.NumBuckets)+cfg.Table.TagBits > 32 {
			b.algorithm = hashing.Murmur3_128
			cfg.Hash.Algorithm = b.algorithm.String()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Build validates the accumulated parameters and constructs the filter.
// Any error recorded by an earlier fluent call (New/FPP/Algorithm/
// Concurrency) is returned here, unwrapped, so callers only need one error
// check at the end of the chain. Each failing call replaces any error
// recorded before it, so when several calls fail the last one's error is
// returned.
func (b *Builder[T]) Build() (*cuckoofilter.Filter[T], error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}

	hasher := hashing.New(b.algorithm, cfg.Hash.Salt1, cfg.Hash.Salt2)
	f, err := cuckoofilter.New(cuckoofilter.Params[T]{
		Funnel:              b.funnel,
		Hasher:              hasher,
		Algorithm:           b.algorithm,
		Salt1:               cfg.Hash.Salt1,
		Salt2:               cfg.Hash.Salt2,
		NumBuckets:          cfg.Table.NumBuckets,
		TagBits:             cfg.Table.TagBits,
		ExpectedConcurrency: cfg.Concurrency.ExpectedConcurrency,
		RandomSeed:          cfg.Concurrency.RandomSeed,
	})
	if err != nil {
		return nil, err
	}

	if b.logger != nil {
		telemetry.New(context.Background(), *b.logger, f, b.logInterval, b.logRate)
	}
	return f, nil
}
