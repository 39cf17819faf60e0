package hashing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashersAreDeterministic(t *testing.T) {
	data := []byte("the quick brown fox")
	algos := []Algorithm{Murmur3_32, Murmur3_128, SHA256, SipHash24, XXHash64}

	for _, algo := range algos {
		h := New(algo, 11, 22)
		require.NotNil(t, h, "algorithm %v", algo)
		require.Equal(t, algo, h.Algorithm())

		a := h.Hash(data, 0)
		b := h.Hash(data, 0)
		require.Equal(t, a, b, "hasher %v is not deterministic", algo)

		c := h.Hash(data, 1)
		require.NotEqual(t, a, c, "salt 0 and salt 1 collided for %v", algo)
	}
}

func TestWidthClassification(t *testing.T) {
	require.Equal(t, Width32, New(Murmur3_32, 1, 0).Width())
	require.Equal(t, Width64, New(SipHash24, 1, 2).Width())
	require.Equal(t, Width64, New(XXHash64, 1, 0).Width())
	require.Equal(t, Width128, New(Murmur3_128, 1, 2).Width())
	require.Equal(t, Width128, New(SHA256, 1, 2).Width())
}

func TestUnknownAlgorithmRejected(t *testing.T) {
	require.False(t, Valid(Algorithm(99)))
	require.Nil(t, New(Algorithm(99), 0, 0))
}

func TestSaltsRoundtripIdentity(t *testing.T) {
	h := New(SipHash24, 7, 9)
	s1, s2 := h.Salts()
	require.Equal(t, uint64(7), s1)
	require.Equal(t, uint64(9), s2)
}
