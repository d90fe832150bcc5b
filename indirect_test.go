package wfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndirectBlockAllocationAndLookup(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirror, 2, 32, 128)

	num, err := fsys.allocateInode()
	require.NoError(t, err)
	ino := &Inode{Num: num, Mode: S_IFREG | 0644}
	require.NoError(t, fsys.storeInode(ino))

	require.NoError(t, fsys.allocateIndirectBlock(ino))
	assert.NotZero(t, ino.Blocks[IndBlock])

	blk, err := fsys.allocateIndirectDataBlock(ino, 0)
	require.NoError(t, err)
	assert.NotZero(t, blk)

	// Same slot returns the same block on a second call.
	blk2, err := fsys.allocateIndirectDataBlock(ino, 0)
	require.NoError(t, err)
	assert.Equal(t, blk, blk2)

	blk3, err := fsys.allocateIndirectDataBlock(ino, 1)
	require.NoError(t, err)
	assert.NotEqual(t, blk, blk3)
}

func TestIndirectDataBlockOutOfRange(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirror, 2, 32, 128)
	ino := &Inode{Num: 5, Mode: S_IFREG | 0644}
	require.NoError(t, fsys.storeInode(ino))
	require.NoError(t, fsys.allocateIndirectBlock(ino))

	_, err := fsys.allocateIndirectDataBlock(ino, IndirectBlockEntries)
	assert.ErrorIs(t, err, ErrFileTooBig)
}

func TestFreeIndirectBlocksClearsBitmap(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirror, 2, 32, 128)
	num, err := fsys.allocateInode()
	require.NoError(t, err)
	ino := &Inode{Num: num, Mode: S_IFREG | 0644}
	require.NoError(t, fsys.storeInode(ino))

	require.NoError(t, fsys.allocateIndirectBlock(ino))
	dataBlk, err := fsys.allocateIndirectDataBlock(ino, 0)
	require.NoError(t, err)

	require.NoError(t, fsys.freeIndirectBlocks(ino))
	assert.Equal(t, int64(0), ino.Blocks[IndBlock])

	bm, err := fsys.readBitmap(0, int64(fsys.sb.DBitmapPtr), fsys.sb.NumDataBlocks)
	require.NoError(t, err)
	assert.False(t, bm.Get(int(dataBlk)))
}
