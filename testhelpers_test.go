package wfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// makeDiskImages creates n zero-filled temp files large enough for the
// given layout and returns their paths.
func makeDiskImages(t *testing.T, n int, size int64) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, "disk"+string(rune('0'+i)))
		f, err := os.Create(p)
		require.NoError(t, err)
		require.NoError(t, f.Truncate(size))
		require.NoError(t, f.Close())
		paths[i] = p
	}
	return paths
}

// newTestFS formats and mounts a fresh filesystem with the given RAID
// mode, disk count, inode count, and data block count.
func newTestFS(t *testing.T, mode RaidMode, numDisks int, numInodes, numBlocks uint64) (*WFS, []string) {
	t.Helper()
	layout := ComputeLayout(numInodes, numBlocks)
	paths := makeDiskImages(t, numDisks, int64(layout.TotalSize))

	require.NoError(t, Format(FormatOptions{
		RaidMode:      mode,
		DiskPaths:     paths,
		NumInodes:     numInodes,
		NumDataBlocks: numBlocks,
	}))

	disks, err := OpenDiskSet(paths, 0)
	require.NoError(t, err)

	fsys, err := Open(disks)
	require.NoError(t, err)

	t.Cleanup(func() { fsys.Close() })
	return fsys, paths
}
