// Package telemetry runs the periodic structured-logging snapshot a Filter
// can optionally enable: a ticker-driven goroutine that diffs cumulative
// counters into per-interval deltas and logs them, paced by a rate limiter
// instead of relying on the ticker interval alone to bound log volume
// under bursts.
package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"
)

// Source is the minimal counter surface the filter exposes for sampling.
// Counters are cumulative; Logs computes deltas itself.
type Source interface {
	Count() uint64
	Puts() uint64
	Evictions() uint64
	VictimSwaps() uint64
	FalseDeletes() uint64
}

type snapshot struct {
	count        uint64
	puts         uint64
	evictions    uint64
	victimSwaps  uint64
	falseDeletes uint64
}

func sample(s Source) snapshot {
	return snapshot{
		count:        s.Count(),
		puts:         s.Puts(),
		evictions:    s.Evictions(),
		victimSwaps:  s.VictimSwaps(),
		falseDeletes: s.FalseDeletes(),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}

// Logs is a running telemetry loop. Close stops it.
type Logs struct {
	cancel   context.CancelFunc
	logger   zerolog.Logger
	source   Source
	interval time.Duration
	limiter  ratelimit.Limiter
}

// New starts a telemetry loop logging a delta snapshot every interval,
// paced so it never logs more than ratePerSec times per second even if the
// caller configures a very short interval.
func New(ctx context.Context, logger zerolog.Logger, source Source, interval time.Duration, ratePerSec int) *Logs {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &Logs{
		cancel:   cancel,
		logger:   logger,
		source:   source,
		interval: interval,
		limiter:  ratelimit.New(ratePerSec),
	}
	go l.loop(ctx)
	return l
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) loop(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	prev := sample(l.source)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.limiter.Take()
			cur := sample(l.source)
			l.logger.Info().
				Uint64("count", cur.count).
				Uint64("puts", delta(prev.puts, cur.puts)).
				Uint64("evictions", delta(prev.evictions, cur.evictions)).
				Uint64("victim_swaps", delta(prev.victimSwaps, cur.victimSwaps)).
				Uint64("false_deletes", delta(prev.falseDeletes, cur.falseDeletes)).
				Str("interval", l.interval.String()).
				Msg("cuckoofilter")
			prev = cur
		}
	}
}
