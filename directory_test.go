package wfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFindRemoveDentry(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirror, 2, 32, 64)

	root, err := fsys.loadInode(RootInode)
	require.NoError(t, err)

	require.NoError(t, fsys.addDentry(root, "a", 7))
	require.NoError(t, fsys.addDentry(root, "b", 8))

	d, err := fsys.findDentry(root, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(7), d.Num)

	_, err = fsys.findDentry(root, "missing")
	assert.ErrorIs(t, err, ErrNoEntry)

	require.NoError(t, fsys.removeDentry(root, "a"))
	_, err = fsys.findDentry(root, "a")
	assert.ErrorIs(t, err, ErrNoEntry)

	entries, err := fsys.listDentries(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].NameString())
}

func TestAddDentryLeavesHoleOnRemove(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirror, 2, 32, 64)
	root, err := fsys.loadInode(RootInode)
	require.NoError(t, err)

	require.NoError(t, fsys.addDentry(root, "x", 3))
	sizeBefore := root.Size
	require.NoError(t, fsys.removeDentry(root, "x"))
	assert.Equal(t, sizeBefore, root.Size, "removeDentry zeros bytes but never shrinks dir.Size")

	require.NoError(t, fsys.addDentry(root, "y", 4))
	assert.Equal(t, sizeBefore+DentrySize, root.Size, "next add grows at the logical end rather than reusing the hole")
}

func TestAddDentryNoSpaceBeyondDirectBlocks(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirror, 2, 32, 4096)
	root, err := fsys.loadInode(RootInode)
	require.NoError(t, err)

	total := DBlock * DentriesPerBlock
	for i := 0; i < total; i++ {
		require.NoError(t, fsys.addDentry(root, nameFor(i), int32(i+1)))
	}
	err = fsys.addDentry(root, "overflow", 999)
	assert.ErrorIs(t, err, ErrNoSpace)
}

func nameFor(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%len(letters)]) + string(letters[(i/len(letters))%len(letters)])
}
