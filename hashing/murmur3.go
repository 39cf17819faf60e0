package hashing

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// murmur3_32 wraps spaolacci/murmur3's 32-bit sum, the hash function used by
// the original Guava CuckooFilter and by leb.io/cuckoo in this pack.
type murmur3_32 struct {
	seed uint32
}

// NewMurmur3_32 builds a Murmur3_32 Hasher keyed by seed. seed is persisted
// as this hasher's first salt long; the second is always zero (Murmur3_32
// has a single 32-bit seed, not a key pair).
func NewMurmur3_32(seed uint32) Hasher {
	return murmur3_32{seed: seed}
}

func (h murmur3_32) Algorithm() Algorithm { return Murmur3_32 }
func (h murmur3_32) Width() Width         { return Width32 }
func (h murmur3_32) Salts() (uint64, uint64) {
	return uint64(h.seed), 0
}

func (h murmur3_32) Hash(data []byte, salt uint64) Code {
	v := murmur3.Sum32WithSeed(data, h.seed+uint32(salt))
	return Code{Width: Width32, Lo: uint64(v)}
}

// murmur3_128 wraps spaolacci/murmur3's 128-bit sum. The two 64-bit halves
// of the digest feed disjoint segments (tag, index) in index.Calc.split's
// wide-hash case.
type murmur3_128 struct {
	seed1, seed2 uint64
}

// NewMurmur3_128 builds a Murmur3_128 Hasher keyed by the given seed pair.
// seed1 seeds the underlying murmur3 state directly; seed2 is mixed in as
// an 8-byte big-endian prefix written to the hasher before the item's own
// bytes, so two hashers differing only in seed2 produce different digests.
func NewMurmur3_128(seed1, seed2 uint64) Hasher {
	return murmur3_128{seed1: seed1, seed2: seed2}
}

func (h murmur3_128) Algorithm() Algorithm { return Murmur3_128 }
func (h murmur3_128) Width() Width         { return Width128 }
func (h murmur3_128) Salts() (uint64, uint64) {
	return h.seed1, h.seed2
}

func (h murmur3_128) Hash(data []byte, salt uint64) Code {
	hh := murmur3.New128WithSeed(uint32(h.seed1 + salt))
	var seed2Buf [8]byte
	binary.BigEndian.PutUint64(seed2Buf[:], h.seed2)
	hh.Write(seed2Buf[:])
	hh.Write(data)
	lo, hi := hh.Sum128()
	return Code{Width: Width128, Lo: lo, Hi: hi}
}
