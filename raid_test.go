package wfs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaidStripePlacement(t *testing.T) {
	fsys, _ := newTestFS(t, RaidStripe, 3, 32, 96)

	data := bytes.Repeat([]byte{0xAB}, BlockSize)
	require.NoError(t, fsys.raidWrite(3, data)) // 3 % 3 == 0 -> disk 0

	var got [BlockSize]byte
	require.NoError(t, fsys.disks.ReadAt(0, int64(fsys.sb.DBlocksPtr)+1*BlockSize, got[:]))
	assert.Equal(t, data, got[:])
}

func TestRaidMirrorWritesAllDisks(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirror, 3, 32, 32)

	data := bytes.Repeat([]byte{0x42}, BlockSize)
	require.NoError(t, fsys.raidWrite(5, data))

	for d := 0; d < 3; d++ {
		var got [BlockSize]byte
		require.NoError(t, fsys.disks.ReadAt(d, int64(fsys.sb.DBlocksPtr)+5*BlockSize, got[:]))
		assert.Equal(t, data, got[:], "disk %d should carry the mirrored copy", d)
	}
}

func TestRaidMirrorMajorityVoteToleratesOneCorruptDisk(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirrorMajor, 3, 32, 32)

	clean := bytes.Repeat([]byte{0x7A}, BlockSize)
	require.NoError(t, fsys.raidWrite(2, clean))

	corrupt := bytes.Repeat([]byte{0x00}, BlockSize)
	require.NoError(t, fsys.disks.WriteAt(1, int64(fsys.sb.DBlocksPtr)+2*BlockSize, corrupt))

	var got [BlockSize]byte
	require.NoError(t, fsys.raidRead(2, got[:]))
	assert.Equal(t, clean, got[:], "majority vote (disks 0 and 2) should win over the corrupted disk 1")
}
