package wfs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRejectsTooFewDisksForRaidMode(t *testing.T) {
	layout := ComputeLayout(32, 64)
	paths := makeDiskImages(t, 1, int64(layout.TotalSize))

	err := Format(FormatOptions{
		RaidMode:      RaidMirror,
		DiskPaths:     paths,
		NumInodes:     32,
		NumDataBlocks: 64,
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFormatRejectsDiskTooSmall(t *testing.T) {
	layout := ComputeLayout(32, 64)
	paths := makeDiskImages(t, 2, int64(layout.TotalSize)-1)

	err := Format(FormatOptions{
		RaidMode:      RaidMirror,
		DiskPaths:     paths,
		NumInodes:     32,
		NumDataBlocks: 64,
	})
	require.Error(t, err)
}

func TestFormatWritesIdenticalSuperblocksAndRootInode(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirrorMajor, 3, 32, 64)

	root, err := fsys.loadInode(RootInode)
	require.NoError(t, err)
	assert.Equal(t, uint32(S_IFDIR|0755), root.Mode)
	assert.Equal(t, int32(2), root.Nlinks)
	assert.Equal(t, int64(0), root.Size)
	assert.Equal(t, uint32(os.Getuid()), root.Uid, "mkfs stamps uid from the invoking process")
	assert.Equal(t, uint32(os.Getgid()), root.Gid, "mkfs stamps gid from the invoking process")

	for d := 1; d < fsys.disks.Len(); d++ {
		var other Superblock
		buf := make([]byte, SuperblockSize)
		require.NoError(t, fsys.disks.ReadAt(d, 0, buf))
		require.NoError(t, other.UnmarshalBinary(buf))
		assert.True(t, fsys.sb.Equal(&other), "every disk's superblock must be byte-identical")
	}

	for i := 0; i < fsys.disks.Len(); i++ {
		assert.Equal(t, "DISK_000"+string(rune('1'+i)), fsys.sb.DiskOrderTag(i))
	}
}

func TestFormatRoundsUpInodeAndBlockCounts(t *testing.T) {
	layout := ComputeLayout(33, 65)
	assert.Equal(t, uint64(64), layout.NumInodes)
	assert.Equal(t, uint64(96), layout.NumDataBlocks)
}
