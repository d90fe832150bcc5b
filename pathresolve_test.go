package wfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePathWalksNestedDirectories(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirror, 2, 32, 64)

	root, err := fsys.loadInode(RootInode)
	require.NoError(t, err)
	a, err := fsys.Mkdir(root, "a", 0755, 0, 0, 1000)
	require.NoError(t, err)
	f, err := fsys.Mknod(a, "f", S_IFREG|0644, 0, 0, 1000)
	require.NoError(t, err)

	got, err := fsys.resolvePath("/a/f")
	require.NoError(t, err)
	assert.Equal(t, f.Num, got.Num)

	_, err = fsys.resolvePath("/a/missing")
	assert.ErrorIs(t, err, ErrNoEntry)

	_, err = fsys.resolvePath("/a/f/anything")
	assert.ErrorIs(t, err, ErrNotDir)
}

func TestResolveParentSplitsBasename(t *testing.T) {
	fsys, _ := newTestFS(t, RaidMirror, 2, 32, 64)
	root, err := fsys.loadInode(RootInode)
	require.NoError(t, err)
	_, err = fsys.Mkdir(root, "a", 0755, 0, 0, 1000)
	require.NoError(t, err)

	parent, base, err := fsys.resolveParent("/a/f")
	require.NoError(t, err)
	assert.Equal(t, "f", base)
	assert.NotEqual(t, int32(RootInode), parent.Num)
}
