package hashing

import "crypto/sha256"

// sha256Hasher uses the standard library's SHA-256, a fixed, well-known
// digest with no tunable parameters worth wrapping a third-party library
// around (see DESIGN.md).
type sha256Hasher struct {
	salt1, salt2 uint64
}

// NewSHA256 builds a SHA-256 Hasher. The salts are mixed into the digest
// input so distinct filters sharing the same algorithm still diverge.
func NewSHA256(salt1, salt2 uint64) Hasher {
	return sha256Hasher{salt1: salt1, salt2: salt2}
}

func (h sha256Hasher) Algorithm() Algorithm { return SHA256 }
func (h sha256Hasher) Width() Width         { return Width128 }
func (h sha256Hasher) Salts() (uint64, uint64) {
	return h.salt1, h.salt2
}

func (h sha256Hasher) Hash(data []byte, salt uint64) Code {
	var buf [16]byte
	putUint64(buf[0:8], h.salt1)
	putUint64(buf[8:16], h.salt2+salt)
	sum := sha256.Sum256(append(buf[:16:16], data...))
	return Code{
		Width: Width128,
		Lo:    getUint64(sum[0:8]),
		Hi:    getUint64(sum[8:16]),
	}
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
