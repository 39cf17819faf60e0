// Package cuckoofilter implements a thread-safe, serializable cuckoo
// filter: a probabilistic approximate-membership structure supporting
// insert, query, delete, and approximate-count, with bounded false
// positives and no false negatives. It stores items in a fixed-capacity
// bit-packed bucket table and resolves collisions with a cuckoo-hashing
// eviction cascade backed by a single-slot victim cell.
package cuckoofilter

import (
	"fmt"
	"sync/atomic"

	"github.com/ashlab/cuckoofilter/funnel"
	"github.com/ashlab/cuckoofilter/hashing"
	"github.com/ashlab/cuckoofilter/internal/index"
	"github.com/ashlab/cuckoofilter/internal/locks"
	"github.com/ashlab/cuckoofilter/internal/rng"
	"github.com/ashlab/cuckoofilter/internal/table"
	"github.com/ashlab/cuckoofilter/internal/victim"
)

// insertAttempts bounds the random-walk eviction loop before the orphaned
// tag is left parked in the victim cell.
const insertAttempts = 500

// Filter is the public cuckoo filter façade. It owns its bit table, its
// segment lock array, its hasher, its victim cell, and its counters
// exclusively; nothing is shared across Filter instances.
type Filter[T any] struct {
	funnel funnel.Funnel[T]
	calc   *index.Calc
	table  *table.BitTable
	locks  *locks.Segmented
	victim victim.Cell
	rng    *rng.Pool

	algorithm           hashing.Algorithm
	salt1, salt2        uint64
	expectedConcurrency int

	count        atomic.Uint64
	puts         atomic.Uint64
	evictions    atomic.Uint64
	victimSwaps  atomic.Uint64
	falseDeletes atomic.Uint64
}

// Params carries the constructor arguments the builder package assembles
// after validating user input. Filter itself performs no validation: that
// is the builder's job.
type Params[T any] struct {
	Funnel              funnel.Funnel[T]
	Hasher              hashing.Hasher
	Algorithm           hashing.Algorithm
	Salt1, Salt2        uint64
	NumBuckets          uint64
	TagBits             uint
	ExpectedConcurrency int
	RandomSeed          int64
}

// New constructs a Filter directly from already-validated Params. Library
// users normally go through the builder package instead, which derives
// NumBuckets/TagBits from a target false-positive rate and item count;
// New is exposed for callers (persist included) that already know the
// exact table geometry, such as when rehydrating a serialized filter.
func New[T any](p Params[T]) (*Filter[T], error) {
	calc, err := index.New(p.Hasher, p.NumBuckets, p.TagBits)
	if err != nil {
		return nil, fmt.Errorf("cuckoofilter: %w", err)
	}
	f := &Filter[T]{
		funnel:              p.Funnel,
		calc:                calc,
		table:               table.New(p.NumBuckets, p.TagBits),
		locks:               locks.New(p.ExpectedConcurrency),
		rng:                 rng.New(p.ExpectedConcurrency, p.RandomSeed),
		algorithm:           p.Algorithm,
		salt1:               p.Salt1,
		salt2:               p.Salt2,
		expectedConcurrency: p.ExpectedConcurrency,
	}
	return f, nil
}

func (f *Filter[T]) coords(item T) (i1, i2, tag uint64) {
	data := f.funnel.Funnel(item)
	i1, tag = f.calc.Generate(data)
	i2 = f.calc.AltIndex(i1, tag)
	return i1, i2, tag
}

// Put inserts item, returning true iff the item is now considered stored.
// It returns false only when a victim is already parked and a second one
// would be needed, which the filter refuses to hold: at most one victim
// may exist at any time.
//
// When both candidate buckets are full, Put takes the victim cell's write
// lock and holds it for the entire eviction cascade (evict), so the cell's
// occupied state never toggles false partway through a cascade where a
// second concurrent Put could otherwise slip in and start a competing
// cascade over the same cell.
func (f *Filter[T]) Put(item T) bool {
	i1, i2, tag := f.coords(item)

	f.locks.LockBucketsWrite(i1, i2)
	ok := f.table.InsertToBucket(i1, tag)
	if !ok {
		ok = f.table.InsertToBucket(i2, tag)
	}
	f.locks.UnlockBucketsWrite(i1, i2)
	if ok {
		f.count.Add(1)
		f.puts.Add(1)
		return true
	}

	f.victim.Lock()
	if f.victim.OccupiedLocked() {
		f.victim.Unlock()
		return false
	}
	f.victim.SetLocked(i1, i2, tag)
	f.evict(i2, tag)

	f.count.Add(1)
	f.puts.Add(1)
	return true
}

// evict runs the random-walk cascade, starting from the alternate bucket
// of the item just parked in the victim cell. The caller must already hold
// the victim cell's write lock; evict releases it exactly once, on return,
// regardless of whether the cascade succeeded or ran out of attempts. It
// holds at most one segment lock at a time, so it never needs the
// two-bucket ordered acquisition path.
func (f *Filter[T]) evict(start uint64, tag uint64) {
	defer f.victim.Unlock()

	cur, curTag := start, tag
	for i := 0; i < insertAttempts; i++ {
		slot := f.rng.Intn4()

		f.locks.LockSingleWrite(cur)
		oldTag := f.table.SwapRandomTagInBucket(cur, slot, curTag)
		f.locks.UnlockSingleWrite(cur)
		f.victimSwaps.Add(1)

		alt := f.calc.AltIndex(cur, oldTag)

		f.locks.LockSingleWrite(alt)
		placed := f.table.InsertToBucket(alt, oldTag)
		f.locks.UnlockSingleWrite(alt)

		if placed {
			f.victim.ClearLocked()
			return
		}

		f.victim.SetLocked(cur, alt, oldTag)
		cur, curTag = alt, oldTag
	}
	f.evictions.Add(1)
	// cell stays occupied with the last parked triple; lock released by defer
}

// MightContain reports whether item is possibly present. A false result
// is definitive; a true result may be a false positive.
func (f *Filter[T]) MightContain(item T) bool {
	i1, i2, tag := f.coords(item)

	f.locks.LockBucketsRead(i1, i2)
	found := f.table.FindTag(i1, i2, tag)
	f.locks.UnlockBucketsRead(i1, i2)
	if found {
		return true
	}

	snap := f.victim.Get()
	return snap.Tag == tag && snap.MatchesBucket(i1)
}

// Delete removes one fingerprint matching item, returning true iff a
// matching slot (or the victim) was cleared. Because fingerprints are not
// unique, Delete may remove a different item's colliding tag with
// probability close to the configured false-positive rate.
func (f *Filter[T]) Delete(item T) bool {
	i1, i2, tag := f.coords(item)

	f.locks.LockBucketsWrite(i1, i2)
	deleted := f.table.DeleteFromBucket(i1, tag)
	if !deleted {
		deleted = f.table.DeleteFromBucket(i2, tag)
	}
	f.locks.UnlockBucketsWrite(i1, i2)

	if deleted {
		f.count.Add(^uint64(0)) // decrement
		f.reinsertVictim()
		return true
	}

	if f.victim.ReleaseIfMatches(i1, i2, tag) {
		f.count.Add(^uint64(0))
		return true
	}
	f.falseDeletes.Add(1)
	return false
}

// reinsertVictim makes a best-effort attempt to place a parked victim back
// into the table after a delete frees a slot. Failure is silent: the
// victim simply stays parked until a future delete opens room.
func (f *Filter[T]) reinsertVictim() {
	snap := f.victim.Get()
	if !snap.Occupied {
		return
	}
	f.locks.LockBucketsWrite(snap.I1, snap.I2)
	placed := f.table.InsertToBucket(snap.I1, snap.Tag)
	if !placed {
		placed = f.table.InsertToBucket(snap.I2, snap.Tag)
	}
	f.locks.UnlockBucketsWrite(snap.I1, snap.I2)
	if placed {
		f.victim.ReleaseIfMatches(snap.I1, snap.I2, snap.Tag)
	}
}

// ApproximateCount returns an upper bound on the number of copies of item
// present, in [0, 9]: up to 8 from the two candidate buckets plus the
// victim.
func (f *Filter[T]) ApproximateCount(item T) int {
	i1, i2, tag := f.coords(item)

	f.locks.LockBucketsRead(i1, i2)
	c := f.table.CountTag(i1, i2, tag)
	f.locks.UnlockBucketsRead(i1, i2)

	snap := f.victim.Get()
	if snap.Tag == tag && snap.MatchesBucket(i1) {
		c++
	}
	return c
}

// Count reports the number of items currently considered present. Under
// contention it is best-effort: a delete that is mid-reinsert of its
// victim can be observed either before or after the reinsertion completes.
func (f *Filter[T]) Count() uint64 { return f.count.Load() }

// LoadFactor reports count / (4 * numBuckets); it may exceed 1.0 while a
// victim is occupied.
func (f *Filter[T]) LoadFactor() float64 {
	return float64(f.count.Load()) / float64(f.table.NumBuckets()*uint64(table.BucketSize))
}

// ActualCapacity reports 4 * numBuckets, the total slot count.
func (f *Filter[T]) ActualCapacity() uint64 {
	return f.table.NumBuckets() * uint64(table.BucketSize)
}

// StorageSize reports the bit-array length in bits.
func (f *Filter[T]) StorageSize() uint64 { return f.table.StorageBits() }

// Puts reports the cumulative number of successful Put calls, exposed for
// telemetry sampling.
func (f *Filter[T]) Puts() uint64 { return f.puts.Load() }

// Evictions reports the cumulative number of eviction cascades that
// exhausted insertAttempts without clearing the victim cell.
func (f *Filter[T]) Evictions() uint64 { return f.evictions.Load() }

// VictimSwaps reports the cumulative number of random-slot swaps performed
// by the eviction loop.
func (f *Filter[T]) VictimSwaps() uint64 { return f.victimSwaps.Load() }

// FalseDeletes reports the cumulative number of Delete calls that found no
// matching fingerprint anywhere.
func (f *Filter[T]) FalseDeletes() uint64 { return f.falseDeletes.Load() }

// Copy returns a deep, independent copy of f. It locks the victim cell and
// then every segment, in that order, for the duration, giving it a
// consistent snapshot; this makes Copy O(table size) and blocks all
// writers while it runs. The victim-before-segments order matches Put's
// acquisition order during an eviction cascade, so Copy can never deadlock
// against a concurrent Put.
func (f *Filter[T]) Copy() *Filter[T] {
	f.victim.RLock()
	f.locks.LockAllRead()
	defer f.locks.UnlockAllRead()
	defer f.victim.RUnlock()

	snap := f.victim.GetLocked()
	cp := &Filter[T]{
		funnel:              f.funnel,
		calc:                f.calc,
		table:               f.table.Clone(),
		locks:               locks.New(f.expectedConcurrency),
		rng:                 rng.New(f.expectedConcurrency, 0),
		algorithm:           f.algorithm,
		salt1:               f.salt1,
		salt2:               f.salt2,
		expectedConcurrency: f.expectedConcurrency,
	}
	cp.count.Store(f.count.Load())
	if snap.Occupied {
		cp.victim.TryAcquireClear(snap.I1, snap.I2, snap.Tag)
	}
	return cp
}

// Equal reports whether f and other hold the same table contents, victim,
// and count. Like Copy, this locks each filter's victim cell before its
// segments and is O(table size).
func (f *Filter[T]) Equal(other *Filter[T]) bool {
	f.victim.RLock()
	f.locks.LockAllRead()
	defer f.locks.UnlockAllRead()
	defer f.victim.RUnlock()

	other.victim.RLock()
	other.locks.LockAllRead()
	defer other.locks.UnlockAllRead()
	defer other.victim.RUnlock()

	if f.table.NumBuckets() != other.table.NumBuckets() || f.table.TagBits() != other.table.TagBits() {
		return false
	}
	fw, ow := f.table.Words(), other.table.Words()
	if len(fw) != len(ow) {
		return false
	}
	for i := range fw {
		if fw[i] != ow[i] {
			return false
		}
	}

	fv, ov := f.victim.GetLocked(), other.victim.GetLocked()
	if fv != ov {
		return false
	}
	return f.count.Load() == other.count.Load()
}

// Hash returns a structural hash of f's contents, consistent with Equal:
// two equal filters always hash to the same value.
func (f *Filter[T]) Hash() uint64 {
	f.victim.RLock()
	f.locks.LockAllRead()
	defer f.locks.UnlockAllRead()
	defer f.victim.RUnlock()

	h := uint64(14695981039346656037) // FNV-1a offset basis
	for _, w := range f.table.Words() {
		h ^= w
		h *= 1099511628211
	}
	snap := f.victim.GetLocked()
	h ^= snap.I1 ^ (snap.I2 << 1) ^ (snap.Tag << 2)
	h *= 1099511628211
	h ^= f.count.Load()
	return h
}

// Algorithm reports the hashing.Algorithm this filter was built with, used
// by persist when writing the serialized header.
func (f *Filter[T]) Algorithm() hashing.Algorithm { return f.algorithm }

// Salts reports the hasher's two configured salts.
func (f *Filter[T]) Salts() (uint64, uint64) { return f.salt1, f.salt2 }

// ExpectedConcurrency reports the segment-sizing parameter this filter was
// built with.
func (f *Filter[T]) ExpectedConcurrency() int { return f.expectedConcurrency }

// TagBits reports the configured fingerprint width.
func (f *Filter[T]) TagBits() uint { return f.table.TagBits() }

// NumBuckets reports the configured bucket count.
func (f *Filter[T]) NumBuckets() uint64 { return f.table.NumBuckets() }

// Words exposes the packed backing array for serialization, read-only.
func (f *Filter[T]) Words() []uint64 { return f.table.Words() }

// VictimSnapshot exposes the victim cell's contents for serialization.
func (f *Filter[T]) VictimSnapshot() victim.Snapshot { return f.victim.Get() }

// Funnel exposes the configured item funnel, needed by persist to rebuild
// a deserialized filter's coords() method.
func (f *Filter[T]) Funnel() funnel.Funnel[T] { return f.funnel }

// Restore overwrites a freshly constructed Filter's table, count, and
// victim cell with previously serialized state. It is only meant to be
// called by persist.Load, immediately after New, before the filter is
// exposed to any other goroutine.
func (f *Filter[T]) Restore(words []uint64, count uint64, occupied bool, i1, i2, tag uint64) {
	copy(f.table.Words(), words)
	f.count.Store(count)
	if occupied {
		f.victim.TryAcquireClear(i1, i2, tag)
	}
}
