package hashing

import "github.com/dchest/siphash"

// sipHash24 wraps dchest/siphash's SipHash-2-4, keyed by a 128-bit key
// split into two 64-bit halves.
type sipHash24 struct {
	k0, k1 uint64
}

// NewSipHash24 builds a SipHash-2-4 Hasher keyed by (k0, k1).
func NewSipHash24(k0, k1 uint64) Hasher {
	return sipHash24{k0: k0, k1: k1}
}

func (h sipHash24) Algorithm() Algorithm { return SipHash24 }
func (h sipHash24) Width() Width         { return Width64 }
func (h sipHash24) Salts() (uint64, uint64) {
	return h.k0, h.k1
}

func (h sipHash24) Hash(data []byte, salt uint64) Code {
	v := siphash.Hash(h.k0, h.k1^salt, data)
	return Code{Width: Width64, Lo: v}
}
