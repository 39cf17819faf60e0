package telemetry

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	count, puts, evictions, victims, falseDeletes uint64
}

func (f *fakeSource) Count() uint64        { return atomic.LoadUint64(&f.count) }
func (f *fakeSource) Puts() uint64         { return atomic.LoadUint64(&f.puts) }
func (f *fakeSource) Evictions() uint64    { return atomic.LoadUint64(&f.evictions) }
func (f *fakeSource) VictimSwaps() uint64  { return atomic.LoadUint64(&f.victims) }
func (f *fakeSource) FalseDeletes() uint64 { return atomic.LoadUint64(&f.falseDeletes) }

func TestLogsStartsAndStopsWithoutPanic(t *testing.T) {
	src := &fakeSource{}
	logger := zerolog.New(io.Discard)
	l := New(context.Background(), logger, src, 5*time.Millisecond, 100)
	atomic.AddUint64(&src.puts, 3)
	time.Sleep(20 * time.Millisecond)
	if err := l.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestDeltaHandlesCounterReset(t *testing.T) {
	if got := delta(10, 3); got != 3 {
		t.Fatalf("expected reset counters to report cur as the delta, got %d", got)
	}
	if got := delta(3, 10); got != 7 {
		t.Fatalf("expected monotonic delta 7, got %d", got)
	}
}
