// Package config holds the validated, adjustable configuration structs a
// Filter is built from: a group of YAML-tagged sub-configs, pointer-typed
// where a section can be entirely absent, an Enabled() predicate on each,
// and an Adjust pass that derives fields a YAML file leaves unset.
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TableCfg describes the bit-packed bucket table's geometry.
type TableCfg struct {
	// ExpectedItems is the number of items the filter should hold at the
	// configured FalsePositiveRate without excessive saturation-driven
	// insert failures.
	ExpectedItems uint64 `yaml:"expected_items"`

	// FalsePositiveRate is the target false-positive probability. TagBits
	// is derived from it during Adjust: tagBits = ceil(log2(1/fpp+3) / L).
	FalsePositiveRate float64 `yaml:"false_positive_rate"`

	// TagBits overrides the derived fingerprint width when non-zero,
	// letting callers pin an exact table layout instead of deriving one
	// from FalsePositiveRate.
	TagBits uint `yaml:"tag_bits"`

	// NumBuckets is derived during Adjust from ExpectedItems (rounded up
	// to the next power of two, buckets sized for BucketSize=4 load) when
	// it is zero. It has no yaml tag, so yaml.v3 reads and writes it under
	// its lowercased field name, "numbuckets".
	NumBuckets uint64
}

func (cfg *TableCfg) Enabled() bool { return cfg != nil }

// ConcurrencyCfg sizes the segmented bucket locker and the thread-local RNG
// pool used for random victim-slot selection during eviction.
type ConcurrencyCfg struct {
	// ExpectedConcurrency is the planned number of goroutines calling Put
	// concurrently. The segment count is 2x this value (see internal/locks);
	// Validate rejects values that are not a power of two.
	ExpectedConcurrency int `yaml:"expected_concurrency"`

	// MaxKicks is recorded in the configuration and defaulted to 500 by
	// Adjust. The filter does not read it: its eviction loop always runs
	// at most 500 attempts.
	MaxKicks int `yaml:"max_kicks"`

	// RandomSeed seeds the RNG pool deterministically. Zero is used as an
	// ordinary seed value, not replaced by wall-clock time, keeping filter
	// construction reproducible for a fixed configuration.
	RandomSeed int64 `yaml:"random_seed"`
}

func (cfg *ConcurrencyCfg) Enabled() bool { return cfg != nil }

// HashCfg selects and seeds the Hasher implementation.
type HashCfg struct {
	// Algorithm names one of hashing.Algorithm's String() values:
	// "murmur3_32", "murmur3_128", "sha256", "siphash2-4", "xxhash64".
	Algorithm string `yaml:"algorithm"`

	Salt1 uint64 `yaml:"salt1"`
	Salt2 uint64 `yaml:"salt2"`
}

func (cfg *HashCfg) Enabled() bool { return cfg != nil }

// TelemetryCfg configures the periodic structured-logging snapshot.
// If nil, telemetry is disabled and the filter never logs on its own.
type TelemetryCfg struct {
	Enabled_  bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	RatePerS  int           `yaml:"rate_per_sec"`
}

func (cfg *TelemetryCfg) Enabled() bool { return cfg != nil && cfg.Enabled_ }

// PersistenceCfg names a dump location and format flag. persist.Save and
// persist.Load take an io.Writer/io.Reader and do not read it.
type PersistenceCfg struct {
	Dir  string `yaml:"dump_dir"`
	Name string `yaml:"dump_name"`
	Gzip bool   `yaml:"gzip"`
}

func (cfg *PersistenceCfg) Enabled() bool { return cfg != nil }

// Config groups every filter subsystem's configuration. Table, Concurrency,
// and Hash are required; Telemetry and Persistence may be nil to disable
// those subsystems entirely.
type Config struct {
	Table       TableCfg        `yaml:"table"`
	Concurrency ConcurrencyCfg  `yaml:"concurrency"`
	Hash        HashCfg         `yaml:"hash"`
	Telemetry   *TelemetryCfg   `yaml:"telemetry"`
	Persistence *PersistenceCfg `yaml:"persistence"`
}

// Adjust derives fields the builder does not read directly from YAML:
// TagBits from FalsePositiveRate when unset, and NumBuckets from
// ExpectedItems.
func (cfg *Config) Adjust() {
	if cfg.Table.TagBits == 0 {
		cfg.Table.TagBits = bitsForFPP(cfg.Table.FalsePositiveRate)
	}
	if cfg.Table.NumBuckets == 0 {
		cfg.Table.NumBuckets = nextPow2(bucketsNeeded(cfg.Table.ExpectedItems))
	}
	if cfg.Concurrency.ExpectedConcurrency <= 0 {
		cfg.Concurrency.ExpectedConcurrency = 1
	}
	if cfg.Concurrency.MaxKicks <= 0 {
		cfg.Concurrency.MaxKicks = 500
	}
}

// targetLoadFactor is the load factor L the tagBits/numBuckets sizing
// formulas below assume.
const targetLoadFactor = 0.955

// bitsForFPP derives the fingerprint width from a target false positive
// rate: tagBits = ceil(log2(1/fpp + 3) / L).
func bitsForFPP(fpp float64) uint {
	if fpp <= 0 || fpp >= 1 {
		fpp = 0.03
	}
	bits := math.Ceil(math.Log2(1/fpp+3) / targetLoadFactor)
	tb := uint(bits)
	if tb < 5 {
		tb = 5
	}
	if tb > 48 {
		tb = 48
	}
	return tb
}

func bucketsNeeded(expectedItems uint64) uint64 {
	if expectedItems == 0 {
		expectedItems = 1
	}
	need := math.Ceil(float64(expectedItems) / (targetLoadFactor * 4))
	return uint64(need)
}

func nextPow2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// Validate reports a descriptive error for any configuration combination
// the builder cannot turn into a working filter.
func (cfg *Config) Validate() error {
	if cfg.Table.FalsePositiveRate < 0 || cfg.Table.FalsePositiveRate >= 1 {
		return fmt.Errorf("config: false_positive_rate must be in [0, 1), got %f", cfg.Table.FalsePositiveRate)
	}
	if cfg.Table.NumBuckets != 0 && cfg.Table.NumBuckets&(cfg.Table.NumBuckets-1) != 0 {
		return fmt.Errorf("config: num_buckets %d is not a power of two", cfg.Table.NumBuckets)
	}
	if cfg.Concurrency.ExpectedConcurrency < 0 {
		return fmt.Errorf("config: expected_concurrency must be >= 0, got %d", cfg.Concurrency.ExpectedConcurrency)
	}
	if ec := cfg.Concurrency.ExpectedConcurrency; ec != 0 && ec&(ec-1) != 0 {
		return fmt.Errorf("config: expected_concurrency %d is not a power of two", ec)
	}
	return nil
}

// Load reads and validates a YAML configuration file, applying Adjust
// before returning.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	cfg.Adjust()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
