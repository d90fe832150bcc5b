package wfs

// Operations in this file compose path resolution, directory entries, and
// inode allocation into the filesystem-level verbs spec §4.7 describes.
// Each takes and returns plain *Inode values; fsnode.go is the only place
// that translates them into FUSE types and errnos.

// Lookup resolves name inside dir, returning the child inode.
func (w *WFS) Lookup(dir *Inode, name string) (*Inode, error) {
	if !dir.IsDir() {
		return nil, ErrNotDir
	}
	d, err := w.findDentry(dir, name)
	if err != nil {
		return nil, err
	}
	return w.loadInode(d.Num)
}

// Mknod creates a new inode of the given mode (expected to already encode
// the S_IFMT file-type bits) under dir with the given name, and links it
// in. Regular files, device/fifo/socket nodes, and directories all go
// through here (Mkdir is a thin wrapper that just sets S_IFDIR, matching
// wfs_mkdir calling straight into wfs_mknod); a new directory's "." and
// ".." are never materialized as stored dentries — nlinks is set to 2 and
// readdir synthesizes both names (spec §9 Open Question decision).
func (w *WFS) Mknod(dir *Inode, name string, mode, uid, gid uint32, now int64) (*Inode, error) {
	if !dir.IsDir() {
		return nil, ErrNotDir
	}
	if _, err := w.findDentry(dir, name); err == nil {
		return nil, ErrExists
	} else if err != ErrNoEntry {
		return nil, err
	}

	num, err := w.allocateInode()
	if err != nil {
		return nil, err
	}

	nlinks := int32(1)
	if IsDirMode(mode) {
		nlinks = 2
	}

	ino := &Inode{
		Num:    num,
		Mode:   mode,
		Uid:    uid,
		Gid:    gid,
		Nlinks: nlinks,
		Atim:   now,
		Mtim:   now,
		Ctim:   now,
	}
	if err := w.storeInode(ino); err != nil {
		w.freeInode(num)
		return nil, err
	}

	if err := w.addDentry(dir, name, num); err != nil {
		w.freeInode(num)
		return nil, err
	}

	dir.Mtim = now
	dir.Ctim = now
	if err := w.storeInode(dir); err != nil {
		return nil, err
	}

	return ino, nil
}

// Mkdir creates a new directory under dir (spec §4.7).
func (w *WFS) Mkdir(dir *Inode, name string, mode, uid, gid uint32, now int64) (*Inode, error) {
	return w.Mknod(dir, name, S_IFDIR|mode, uid, gid, now)
}

// Unlink removes name from dir and frees the target inode once its link
// count drops to zero (spec §4.7). WFS has no hardlink creation operation,
// so in practice every unlink drops the sole remaining link.
func (w *WFS) Unlink(dir *Inode, name string) error {
	d, err := w.findDentry(dir, name)
	if err != nil {
		return err
	}
	ino, err := w.loadInode(d.Num)
	if err != nil {
		return err
	}
	if ino.IsDir() {
		return ErrIsDir
	}

	if err := w.removeDentry(dir, name); err != nil {
		return err
	}

	ino.Nlinks--
	if ino.Nlinks <= 0 {
		if err := w.TruncateFile(ino); err != nil {
			return err
		}
		return w.freeInode(ino.Num)
	}
	return w.storeInode(ino)
}

// Rmdir removes an empty subdirectory named name from dir (spec §4.7).
func (w *WFS) Rmdir(dir *Inode, name string) error {
	d, err := w.findDentry(dir, name)
	if err != nil {
		return err
	}
	child, err := w.loadInode(d.Num)
	if err != nil {
		return err
	}
	if !child.IsDir() {
		return ErrNotDir
	}

	empty, err := w.dirIsEmpty(child)
	if err != nil {
		return err
	}
	if !empty {
		return ErrNotEmpty
	}

	for i := 0; i < DBlock; i++ {
		if child.Blocks[i] != 0 {
			if err := w.freeDataBlock(child.Blocks[i]); err != nil {
				return err
			}
		}
	}

	if err := w.removeDentry(dir, name); err != nil {
		return err
	}
	if err := w.freeInode(child.Num); err != nil {
		return err
	}

	dir.Nlinks--
	return w.storeInode(dir)
}

// Readdir returns every non-empty entry stored in dir's allocated blocks.
// Root's materialized "." and ".." (spec §3.1) sit in data block 0, which
// the block scan treats as unallocated, so they are not returned;
// fsnode.go's Readdir still filters any stored "." / ".." before adding
// its own synthesized copies.
func (w *WFS) Readdir(dir *Inode) ([]Dentry, error) {
	return w.listDentries(dir)
}
