package wfs

// The inode table is always fully mirrored regardless of RAID mode:
// loadInode is authoritative from disk 0, storeInode writes every disk
// (spec §4.3).

func (w *WFS) inodeOffset(num int32) int64 {
	return int64(w.sb.IBlocksPtr) + int64(num)*InodeSize
}

func (w *WFS) loadInode(num int32) (*Inode, error) {
	buf := make([]byte, InodeSize)
	if err := w.disks.ReadAt(0, w.inodeOffset(num), buf); err != nil {
		return nil, err
	}
	ino := &Inode{}
	if err := ino.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return ino, nil
}

func (w *WFS) storeInode(ino *Inode) error {
	buf, err := ino.MarshalBinary()
	if err != nil {
		return err
	}
	off := w.inodeOffset(ino.Num)
	for d := 0; d < w.disks.Len(); d++ {
		if err := w.disks.WriteAt(d, off, buf); err != nil {
			return err
		}
	}
	return nil
}
