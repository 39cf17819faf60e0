// Package funnel converts filter items of an arbitrary type into the byte
// slice the hashing and index packages operate on, through a small
// interface so a Filter[T] can be built over any item type, not just
// strings.
package funnel

import (
	"encoding/binary"
	"sync"

	"github.com/zeebo/xxh3"
)

// Funnel reduces a value of type T to the bytes its hash is computed from.
// Implementations must be deterministic: the same value must always funnel
// to the same bytes, since the filter's correctness depends on it.
type Funnel[T any] interface {
	Funnel(v T) []byte
}

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

// digest runs data through a pooled xxh3 hasher and returns its 128-bit sum
// as 16 bytes, giving fixed-size output regardless of the input's shape.
// hashing.Hasher (not this package) derives the actual fingerprint/index
// pair from whatever Funnel returns; most Funnels simply return the raw
// bytes they were given and let the configured Hasher do the mixing, but
// funnels over large or variable-shape values use digest to bound the
// bytes handed downstream.
func digest(data []byte) []byte {
	h := hasherPool.Get().(*xxh3.Hasher)
	h.Reset()
	_, _ = h.Write(data)
	sum := h.Sum128()
	hasherPool.Put(h)

	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:8], sum.Lo)
	binary.LittleEndian.PutUint64(out[8:16], sum.Hi)
	return out
}

// StringFunnel funnels strings by their raw bytes.
type StringFunnel struct{}

func (StringFunnel) Funnel(v string) []byte { return []byte(v) }

// BytesFunnel funnels []byte values as-is.
type BytesFunnel struct{}

func (BytesFunnel) Funnel(v []byte) []byte { return v }

// Uint64Funnel funnels uint64 values as their little-endian bytes.
type Uint64Funnel struct{}

func (Uint64Funnel) Funnel(v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return buf[:]
}

// DigestFunnel wraps another Funnel and collapses its output to a fixed
// 16-byte xxh3 digest, useful for item types whose natural byte encoding is
// large or variable length (structs, slices of structs).
type DigestFunnel[T any] struct {
	Inner Funnel[T]
}

func (f DigestFunnel[T]) Funnel(v T) []byte {
	return digest(f.Inner.Funnel(v))
}
