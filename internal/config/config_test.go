package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdjustDerivesTagBitsFromFPP(t *testing.T) {
	cfg := &Config{Table: TableCfg{FalsePositiveRate: 0.03, ExpectedItems: 1000}}
	cfg.Adjust()
	require.NotZero(t, cfg.Table.TagBits)
	require.NotZero(t, cfg.Table.NumBuckets)
}

func TestAdjustLeavesExplicitTagBitsAlone(t *testing.T) {
	cfg := &Config{Table: TableCfg{TagBits: 20, ExpectedItems: 1000}}
	cfg.Adjust()
	require.Equal(t, uint(20), cfg.Table.TagBits)
}

func TestAdjustRoundsBucketsToPowerOfTwo(t *testing.T) {
	cfg := &Config{Table: TableCfg{TagBits: 10, ExpectedItems: 1000}}
	cfg.Adjust()
	n := cfg.Table.NumBuckets
	require.Zero(t, n&(n-1))
}

func TestValidateRejectsOutOfRangeFPP(t *testing.T) {
	cfg := &Config{Table: TableCfg{FalsePositiveRate: 1.5}}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPowerOfTwoBuckets(t *testing.T) {
	cfg := &Config{Table: TableCfg{NumBuckets: 100}}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPowerOfTwoConcurrency(t *testing.T) {
	cfg := &Config{Concurrency: ConcurrencyCfg{ExpectedConcurrency: 3}}
	require.Error(t, cfg.Validate())
}

func TestNilSubConfigsReportDisabled(t *testing.T) {
	var tel *TelemetryCfg
	var per *PersistenceCfg
	require.False(t, tel.Enabled())
	require.False(t, per.Enabled())
}

func TestTelemetryEnabledRequiresExplicitFlag(t *testing.T) {
	tel := &TelemetryCfg{Enabled_: false}
	require.False(t, tel.Enabled())
	tel.Enabled_ = true
	require.True(t, tel.Enabled())
}
