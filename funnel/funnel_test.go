package funnel

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringFunnelIsDeterministic(t *testing.T) {
	f := StringFunnel{}
	require.Equal(t, f.Funnel("hello"), f.Funnel("hello"))
	require.NotEqual(t, f.Funnel("hello"), f.Funnel("world"))
}

func TestUint64FunnelRoundsTripsValue(t *testing.T) {
	f := Uint64Funnel{}
	a := f.Funnel(42)
	b := f.Funnel(42)
	require.Equal(t, a, b)
	require.Len(t, a, 8)
	require.Equal(t, uint64(42), binary.LittleEndian.Uint64(a))
}

func TestDigestFunnelProducesFixedWidthOutput(t *testing.T) {
	f := DigestFunnel[string]{Inner: StringFunnel{}}
	out := f.Funnel("a very long input that would otherwise vary in length across items")
	require.Len(t, out, 16)
	require.Equal(t, out, f.Funnel("a very long input that would otherwise vary in length across items"))
}

func TestBytesFunnelReturnsInputBytes(t *testing.T) {
	f := BytesFunnel{}
	in := []byte{1, 2, 3}
	require.Equal(t, in, f.Funnel(in))
}
