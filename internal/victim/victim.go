// Package victim implements the single-slot overflow cell a cuckoo filter
// falls back to when its eviction loop runs out of kicks. Cell embeds a
// sync.RWMutex directly so a caller running a whole eviction cascade can
// hold the write lock across every swap in that cascade, rather than
// re-locking per swap: the *Locked methods assume the caller already holds
// the lock, while TryAcquireClear and ReleaseIfMatches are self-contained
// single-call operations for callers that only need one atomic step.
package victim

import "sync"

// Snapshot is a point-in-time copy of the victim cell's contents.
type Snapshot struct {
	I1, I2   uint64
	Tag      uint64
	Occupied bool
}

// Cell is the filter's single victim slot.
type Cell struct {
	sync.RWMutex
	i1, i2   uint64
	tag      uint64
	occupied bool
}

// Get returns a consistent Snapshot under a shared lock.
func (c *Cell) Get() Snapshot {
	c.RLock()
	defer c.RUnlock()
	return c.GetLocked()
}

// GetLocked returns a Snapshot of the cell's current contents. The caller
// must already hold the cell's lock, for reading or writing; it exists so
// a caller that locks the cell once across a larger multi-step snapshot
// (table plus victim) never has to recursively re-lock it.
func (c *Cell) GetLocked() Snapshot {
	return Snapshot{I1: c.i1, I2: c.i2, Tag: c.tag, Occupied: c.occupied}
}

// TryAcquireClear stores (i1, i2, tag) into the cell if and only if it is
// currently empty, returning whether the store happened. Filter.Copy and
// Filter.Restore use it to seed a fresh cell; the eviction loop instead
// holds the lock and uses SetLocked.
func (c *Cell) TryAcquireClear(i1, i2, tag uint64) bool {
	c.Lock()
	defer c.Unlock()
	if c.occupied {
		return false
	}
	c.i1, c.i2, c.tag, c.occupied = i1, i2, tag, true
	return true
}

// Release empties the cell unconditionally. The filter itself clears the
// cell through ReleaseIfMatches or ClearLocked instead.
func (c *Cell) Release() {
	c.Lock()
	defer c.Unlock()
	c.i1, c.i2, c.tag, c.occupied = 0, 0, 0, false
}

// OccupiedLocked reports whether the cell currently holds an item. The
// caller must already hold the cell's write lock.
func (c *Cell) OccupiedLocked() bool { return c.occupied }

// SetLocked overwrites the cell's contents unconditionally. The caller must
// already hold the cell's write lock (typically for the entire duration of
// an eviction cascade), so the cell's occupied state never transiently
// reads false between one parked triple and the next.
func (c *Cell) SetLocked(i1, i2, tag uint64) {
	c.i1, c.i2, c.tag, c.occupied = i1, i2, tag, true
}

// ClearLocked empties the cell. The caller must already hold the cell's
// write lock.
func (c *Cell) ClearLocked() {
	c.i1, c.i2, c.tag, c.occupied = 0, 0, 0, false
}

// ReleaseIfMatches empties the cell only if it still holds tag and at least
// one of its two stored buckets is i1 or i2, reporting whether it did. Used
// by Delete, which must not clear a victim written by a concurrent Put for a
// different item.
func (c *Cell) ReleaseIfMatches(i1, i2, tag uint64) bool {
	c.Lock()
	defer c.Unlock()
	if !c.occupied || c.tag != tag {
		return false
	}
	if c.i1 != i1 && c.i1 != i2 && c.i2 != i1 && c.i2 != i2 {
		return false
	}
	c.i1, c.i2, c.tag, c.occupied = 0, 0, 0, false
	return true
}

// Occupied reports whether the cell currently holds an item.
func (c *Cell) Occupied() bool {
	c.RLock()
	defer c.RUnlock()
	return c.occupied
}

// MatchesBucket reports whether the victim's tag would be found by a query
// touching bucket b (b equals either its i1 or i2), used by MightContain and
// ApproximateCount to fold the victim into bucket-restricted lookups.
func (s Snapshot) MatchesBucket(b uint64) bool {
	return s.Occupied && (s.I1 == b || s.I2 == b)
}
