package wfs

// Directory operations work against a directory inode's data blocks,
// which hold a packed array of Dentry records (spec §4.5). The logical end
// of the directory is dirInode.Size/DentrySize; holes left by removeDentry
// are never compacted or reused.

// findDentry scans every allocated direct block of dir for name, returning
// the matching entry. Directories never use the indirect block (spec §4.7
// rmdir note), so only the D_BLOCK direct slots are ever populated.
func (w *WFS) findDentry(dir *Inode, name string) (Dentry, error) {
	for i := 0; i < DBlock; i++ {
		blk := dir.Blocks[i]
		if blk == 0 {
			continue
		}
		buf := make([]byte, BlockSize)
		if err := w.raidRead(blk, buf); err != nil {
			return Dentry{}, err
		}
		for j := 0; j < DentriesPerBlock; j++ {
			var d Dentry
			if err := d.UnmarshalBinary(buf[j*DentrySize:]); err != nil {
				return Dentry{}, err
			}
			if d.Empty() {
				continue
			}
			if d.NameString() == name {
				return d, nil
			}
		}
	}
	return Dentry{}, ErrNoEntry
}

// addDentry appends a new entry at the directory's logical end
// (dir.Size/DentrySize), allocating a new direct block if the target slot
// isn't backed yet. It never reuses a hole left by removeDentry, matching
// the original implementation (spec §4.5, §8 scenario 5).
func (w *WFS) addDentry(dir *Inode, name string, num int32) error {
	totalEntries := int(dir.Size) / DentrySize
	blockIdx := totalEntries / DentriesPerBlock
	entryIdx := totalEntries % DentriesPerBlock

	if blockIdx >= DBlock {
		return ErrNoSpace
	}

	if dir.Blocks[blockIdx] == 0 {
		blk, err := w.allocateDataBlock()
		if err != nil {
			return err
		}
		dir.Blocks[blockIdx] = blk
	}

	buf := make([]byte, BlockSize)
	if err := w.raidRead(dir.Blocks[blockIdx], buf); err != nil {
		return err
	}

	d := newDentry(name, num)
	enc, err := d.MarshalBinary()
	if err != nil {
		return err
	}
	copy(buf[entryIdx*DentrySize:], enc)

	if err := w.raidWrite(dir.Blocks[blockIdx], buf); err != nil {
		return err
	}

	dir.Size += DentrySize
	return w.storeInode(dir)
}

// removeDentry zeros the matching entry's bytes in place without shrinking
// dir.Size, leaving a hole (spec §4.5).
func (w *WFS) removeDentry(dir *Inode, name string) error {
	for i := 0; i < DBlock; i++ {
		blk := dir.Blocks[i]
		if blk == 0 {
			continue
		}
		buf := make([]byte, BlockSize)
		if err := w.raidRead(blk, buf); err != nil {
			return err
		}
		for j := 0; j < DentriesPerBlock; j++ {
			var d Dentry
			off := j * DentrySize
			if err := d.UnmarshalBinary(buf[off:]); err != nil {
				return err
			}
			if d.Empty() || d.NameString() != name {
				continue
			}
			for k := 0; k < DentrySize; k++ {
				buf[off+k] = 0
			}
			return w.raidWrite(blk, buf)
		}
	}
	return ErrNoEntry
}

// listDentries returns every non-empty stored entry in dir, in on-disk
// order, without the synthetic "." / ".." readdir adds.
func (w *WFS) listDentries(dir *Inode) ([]Dentry, error) {
	var out []Dentry
	for i := 0; i < DBlock; i++ {
		blk := dir.Blocks[i]
		if blk == 0 {
			continue
		}
		buf := make([]byte, BlockSize)
		if err := w.raidRead(blk, buf); err != nil {
			return nil, err
		}
		for j := 0; j < DentriesPerBlock; j++ {
			var d Dentry
			if err := d.UnmarshalBinary(buf[j*DentrySize:]); err != nil {
				return nil, err
			}
			if !d.Empty() {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// dirIsEmpty reports whether dir has no stored entries other than "." and
// "..", the check rmdir performs (spec §4.7).
func (w *WFS) dirIsEmpty(dir *Inode) (bool, error) {
	entries, err := w.listDentries(dir)
	if err != nil {
		return false, err
	}
	for _, d := range entries {
		n := d.NameString()
		if n != "." && n != ".." {
			return false, nil
		}
	}
	return true, nil
}
