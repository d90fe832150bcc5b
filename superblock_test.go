package wfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuperblockRoundTrip(t *testing.T) {
	sb := &Superblock{
		NumInodes:     32,
		NumDataBlocks: 64,
		IBitmapPtr:    512,
		DBitmapPtr:    516,
		IBlocksPtr:    1024,
		DBlocksPtr:    17408,
		RaidMode:      RaidMirrorMajor,
		NumDisks:      3,
	}
	sb.setDiskOrderTag(0, "DISK_0001")
	sb.setDiskOrderTag(1, "DISK_0002")
	sb.setDiskOrderTag(2, "DISK_0003")

	buf, err := sb.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, buf, SuperblockSize)

	var got Superblock
	require.NoError(t, got.UnmarshalBinary(buf))

	assert.True(t, sb.Equal(&got))
	assert.Equal(t, "DISK_0002", got.DiskOrderTag(1))
	assert.Equal(t, RaidMirrorMajor, got.RaidMode)
}

func TestComputeLayoutRoundsUpAndAligns(t *testing.T) {
	l := ComputeLayout(10, 10)
	assert.Equal(t, uint64(32), l.NumInodes)
	assert.Equal(t, uint64(32), l.NumDataBlocks)
	assert.Equal(t, uint64(0), l.IBlocksPtr%BlockSize)
	assert.True(t, l.DBlocksPtr > l.IBlocksPtr)
	assert.Equal(t, l.IBlocksPtr+l.NumInodes*InodeSize, l.DBlocksPtr)
}

func TestParseRaidMode(t *testing.T) {
	cases := map[string]RaidMode{"0": RaidStripe, "1": RaidMirror, "1v": RaidMirrorMajor}
	for s, want := range cases {
		got, err := ParseRaidMode(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseRaidMode("2")
	assert.Error(t, err)
}
