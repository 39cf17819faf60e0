package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertFindDeleteRoundtrip(t *testing.T) {
	tbl := New(16, 13)
	require.True(t, tbl.InsertToBucket(3, 511))
	require.True(t, tbl.FindTag(3, 9, 511))
	require.Equal(t, 1, tbl.CountTag(3, 9, 511))
	require.True(t, tbl.DeleteFromBucket(3, 511))
	require.False(t, tbl.FindTag(3, 9, 511))
}

func TestBucketHoldsExactlyFourSlots(t *testing.T) {
	tbl := New(8, 9)
	for i := uint64(1); i <= 4; i++ {
		require.True(t, tbl.InsertToBucket(0, i))
	}
	require.False(t, tbl.InsertToBucket(0, 5))
	require.Equal(t, 4, tbl.CountTag(0, 1, 1)+tbl.CountTag(0, 1, 2)+tbl.CountTag(0, 1, 3)+tbl.CountTag(0, 1, 4))
}

func TestWideTagsSpanningWordBoundary(t *testing.T) {
	// tagBits=48 packs 4 slots into 3 words per bucket (192 bits), forcing
	// several slots to straddle a 64-bit word boundary.
	tbl := New(4, 48)
	const fp = uint64(0xABCDEF123456) & ((1 << 48) - 1)
	for b := uint64(0); b < 4; b++ {
		for p := 0; p < BucketSize; p++ {
			tbl.WriteTag(b, p, fp+uint64(b*4+uint64(p)))
		}
	}
	for b := uint64(0); b < 4; b++ {
		for p := 0; p < BucketSize; p++ {
			require.Equal(t, fp+uint64(b*4+uint64(p)), tbl.ReadTag(b, p))
		}
	}
}

func TestSixtyFourBitTags(t *testing.T) {
	tbl := New(8, 64)
	tbl.WriteTag(5, 2, ^uint64(0))
	require.Equal(t, ^uint64(0), tbl.ReadTag(5, 2))
	tbl.WriteTag(5, 2, 0)
	require.Zero(t, tbl.ReadTag(5, 2))
}

func TestSwapRandomTagReturnsPreviousValue(t *testing.T) {
	tbl := New(4, 10)
	tbl.WriteTag(1, 0, 77)
	old := tbl.SwapRandomTagInBucket(1, 0, 99)
	require.Equal(t, uint64(77), old)
	require.Equal(t, uint64(99), tbl.ReadTag(1, 0))
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := New(4, 12)
	tbl.WriteTag(0, 0, 42)
	clone := tbl.Clone()
	clone.WriteTag(0, 0, 7)
	require.Equal(t, uint64(42), tbl.ReadTag(0, 0))
	require.Equal(t, uint64(7), clone.ReadTag(0, 0))
}

func TestStorageBits(t *testing.T) {
	tbl := New(1024, 14)
	require.Equal(t, uint64(1024*4*14), tbl.StorageBits())
}
