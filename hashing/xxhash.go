package hashing

import "github.com/cespare/xxhash/v2"

// xxHash64 wraps cespare/xxhash/v2. The library exposes no seeded variant,
// so rehash/key salting is folded in by mixing the salt into the digest
// with SplitMix64 before combining.
type xxHash64 struct {
	key uint64
}

// NewXXHash64 builds an XXHash64 Hasher keyed by key.
func NewXXHash64(key uint64) Hasher {
	return xxHash64{key: key}
}

func (h xxHash64) Algorithm() Algorithm { return XXHash64 }
func (h xxHash64) Width() Width         { return Width64 }
func (h xxHash64) Salts() (uint64, uint64) {
	return h.key, 0
}

func (h xxHash64) Hash(data []byte, salt uint64) Code {
	v := xxhash.Sum64(data) ^ mix64(h.key+salt)
	return Code{Width: Width64, Lo: v}
}

// mix64 is the SplitMix64 finalizer, used here purely to decorrelate the key
// and salt from the raw xxHash64 digest.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
