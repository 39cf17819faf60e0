// Package persist serializes a Filter to and from a binary stream: a fixed
// header of scalar fields, the packed bit array, and a trailing CRC32 over
// everything that precedes it.
package persist

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/ashlab/cuckoofilter"
	"github.com/ashlab/cuckoofilter/funnel"
	"github.com/ashlab/cuckoofilter/hashing"
)

// magic identifies the binary format and its version, guarding against
// decoding an unrelated file as a filter dump.
const magic = uint32(0xCFC0FFEE)

// Save writes f's full state: dimensions, hash configuration, the victim
// cell, the count, and the packed bit array, followed by a CRC32 of
// everything written before it.
func Save[T any](w io.Writer, f *cuckoofilter.Filter[T]) error {
	bw := bufio.NewWriter(w)
	crc := crc32.NewIEEE()
	tee := io.MultiWriter(bw, crc)

	if err := binary.Write(tee, binary.LittleEndian, magic); err != nil {
		return fmt.Errorf("persist: write magic: %w", err)
	}
	if err := binary.Write(tee, binary.LittleEndian, uint32(f.Algorithm())); err != nil {
		return fmt.Errorf("persist: write algorithm: %w", err)
	}
	salt1, salt2 := f.Salts()
	if err := binary.Write(tee, binary.LittleEndian, salt1); err != nil {
		return fmt.Errorf("persist: write salt1: %w", err)
	}
	if err := binary.Write(tee, binary.LittleEndian, salt2); err != nil {
		return fmt.Errorf("persist: write salt2: %w", err)
	}
	if err := binary.Write(tee, binary.LittleEndian, uint64(f.TagBits())); err != nil {
		return fmt.Errorf("persist: write tagBits: %w", err)
	}
	if err := binary.Write(tee, binary.LittleEndian, f.NumBuckets()); err != nil {
		return fmt.Errorf("persist: write numBuckets: %w", err)
	}
	if err := binary.Write(tee, binary.LittleEndian, int64(f.ExpectedConcurrency())); err != nil {
		return fmt.Errorf("persist: write expectedConcurrency: %w", err)
	}
	if err := binary.Write(tee, binary.LittleEndian, f.Count()); err != nil {
		return fmt.Errorf("persist: write count: %w", err)
	}

	snap := f.VictimSnapshot()
	if err := binary.Write(tee, binary.LittleEndian, snap.Occupied); err != nil {
		return fmt.Errorf("persist: write victim occupied: %w", err)
	}
	if err := binary.Write(tee, binary.LittleEndian, [3]uint64{snap.I1, snap.I2, snap.Tag}); err != nil {
		return fmt.Errorf("persist: write victim triple: %w", err)
	}

	words := f.Words()
	if err := binary.Write(tee, binary.LittleEndian, uint64(len(words))); err != nil {
		return fmt.Errorf("persist: write word count: %w", err)
	}
	if err := binary.Write(tee, binary.LittleEndian, words); err != nil {
		return fmt.Errorf("persist: write table words: %w", err)
	}

	if err := binary.Write(bw, binary.LittleEndian, crc.Sum32()); err != nil {
		return fmt.Errorf("persist: write checksum: %w", err)
	}
	return bw.Flush()
}

// header mirrors the scalar fields Save writes before the packed bit
// array, used to rebuild a cuckoofilter.Params before reading the array.
type header struct {
	algorithm           hashing.Algorithm
	salt1, salt2        uint64
	tagBits             uint64
	numBuckets          uint64
	expectedConcurrency int64
	count               uint64
	occupied            bool
	victim              [3]uint64
	wordCount           uint64
}

// Load reads a stream written by Save and rebuilds a fully functional
// Filter, including a fresh lock array and RNG pool sized from the
// serialized expectedConcurrency. Locks are never part of the serialized
// state itself, only the parameter used to reconstruct them.
func Load[T any](r io.Reader, f funnel.Funnel[T]) (*cuckoofilter.Filter[T], error) {
	br := bufio.NewReader(r)
	crc := crc32.NewIEEE()
	tee := io.TeeReader(br, crc)

	var gotMagic uint32
	if err := binary.Read(tee, binary.LittleEndian, &gotMagic); err != nil {
		return nil, fmt.Errorf("persist: read magic: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("persist: bad magic %x, not a cuckoo filter dump", gotMagic)
	}

	var h header
	var algo uint32
	if err := binary.Read(tee, binary.LittleEndian, &algo); err != nil {
		return nil, fmt.Errorf("persist: read algorithm: %w", err)
	}
	h.algorithm = hashing.Algorithm(algo)
	if err := binary.Read(tee, binary.LittleEndian, &h.salt1); err != nil {
		return nil, fmt.Errorf("persist: read salt1: %w", err)
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.salt2); err != nil {
		return nil, fmt.Errorf("persist: read salt2: %w", err)
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.tagBits); err != nil {
		return nil, fmt.Errorf("persist: read tagBits: %w", err)
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.numBuckets); err != nil {
		return nil, fmt.Errorf("persist: read numBuckets: %w", err)
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.expectedConcurrency); err != nil {
		return nil, fmt.Errorf("persist: read expectedConcurrency: %w", err)
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.count); err != nil {
		return nil, fmt.Errorf("persist: read count: %w", err)
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.occupied); err != nil {
		return nil, fmt.Errorf("persist: read victim occupied: %w", err)
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.victim); err != nil {
		return nil, fmt.Errorf("persist: read victim triple: %w", err)
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.wordCount); err != nil {
		return nil, fmt.Errorf("persist: read word count: %w", err)
	}

	words := make([]uint64, h.wordCount)
	if err := binary.Read(tee, binary.LittleEndian, words); err != nil {
		return nil, fmt.Errorf("persist: read table words: %w", err)
	}

	wantCRC := crc.Sum32()
	var gotCRC uint32
	if err := binary.Read(br, binary.LittleEndian, &gotCRC); err != nil {
		return nil, fmt.Errorf("persist: read checksum: %w", err)
	}
	if gotCRC != wantCRC {
		return nil, fmt.Errorf("persist: checksum mismatch: file is corrupt")
	}

	hasher := hashing.New(h.algorithm, h.salt1, h.salt2)
	filter, err := cuckoofilter.New(cuckoofilter.Params[T]{
		Funnel:              f,
		Hasher:              hasher,
		Algorithm:           h.algorithm,
		Salt1:               h.salt1,
		Salt2:               h.salt2,
		NumBuckets:          h.numBuckets,
		TagBits:             uint(h.tagBits),
		ExpectedConcurrency: int(h.expectedConcurrency),
	})
	if err != nil {
		return nil, fmt.Errorf("persist: rebuild filter: %w", err)
	}

	filter.Restore(words, h.count, h.occupied, h.victim[0], h.victim[1], h.victim[2])
	return filter, nil
}
