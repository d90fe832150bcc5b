package wfs

import "encoding/binary"

// The indirect block referenced by inode.Blocks[IndBlock] stores a packed
// array of IndirectBlockEntries (64) int64 data-block numbers, value 0
// meaning an empty slot (spec §4.4).

func encodeIndirectPointers(ptrs [IndirectBlockEntries]int64) []byte {
	buf := make([]byte, BlockSize)
	for i, p := range ptrs {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(p))
	}
	return buf
}

func decodeIndirectPointers(buf []byte) (ptrs [IndirectBlockEntries]int64) {
	for i := range ptrs {
		ptrs[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return ptrs
}

func (w *WFS) readIndirectPointers(ino *Inode) ([IndirectBlockEntries]int64, error) {
	var ptrs [IndirectBlockEntries]int64
	if ino.Blocks[IndBlock] == 0 {
		return ptrs, ErrNoEntry
	}
	buf := make([]byte, BlockSize)
	if err := w.raidRead(ino.Blocks[IndBlock], buf); err != nil {
		return ptrs, err
	}
	return decodeIndirectPointers(buf), nil
}

func (w *WFS) writeIndirectPointers(ino *Inode, ptrs [IndirectBlockEntries]int64) error {
	if ino.Blocks[IndBlock] == 0 {
		return ErrNoEntry
	}
	return w.raidWrite(ino.Blocks[IndBlock], encodeIndirectPointers(ptrs))
}

// allocateIndirectBlock allocates and zero-fills the indirect block for
// ino if it doesn't already have one, persisting the inode.
func (w *WFS) allocateIndirectBlock(ino *Inode) error {
	if ino.Blocks[IndBlock] != 0 {
		return nil
	}

	blk, err := w.allocateDataBlock()
	if err != nil {
		return err
	}
	ino.Blocks[IndBlock] = blk

	zero := make([]byte, BlockSize)
	if err := w.raidWrite(blk, zero); err != nil {
		w.freeDataBlock(blk)
		ino.Blocks[IndBlock] = 0
		return err
	}

	return w.storeInode(ino)
}

// allocateIndirectDataBlock returns the existing data-block number at
// slot idx if non-zero, otherwise allocates a new block, records it, and
// writes the indirect block back (spec §4.4).
func (w *WFS) allocateIndirectDataBlock(ino *Inode, idx int) (int64, error) {
	if idx >= IndirectBlockEntries {
		return 0, ErrFileTooBig
	}

	ptrs, err := w.readIndirectPointers(ino)
	if err != nil {
		return 0, err
	}

	if ptrs[idx] != 0 {
		return ptrs[idx], nil
	}

	blk, err := w.allocateDataBlock()
	if err != nil {
		return 0, err
	}

	ptrs[idx] = blk
	if err := w.writeIndirectPointers(ino, ptrs); err != nil {
		w.freeDataBlock(blk)
		return 0, err
	}

	return blk, nil
}

// freeIndirectBlocks frees every non-zero slot's data block, zeros the
// indirect block, then frees the indirect block itself (spec §4.4). A
// no-op if ino has no indirect block.
func (w *WFS) freeIndirectBlocks(ino *Inode) error {
	if ino.Blocks[IndBlock] == 0 {
		return nil
	}

	ptrs, err := w.readIndirectPointers(ino)
	if err != nil {
		return err
	}

	for i, p := range ptrs {
		if p != 0 {
			if err := w.freeDataBlock(p); err != nil {
				return err
			}
			ptrs[i] = 0
		}
	}

	if err := w.raidWrite(ino.Blocks[IndBlock], make([]byte, BlockSize)); err != nil {
		return err
	}

	if err := w.freeDataBlock(ino.Blocks[IndBlock]); err != nil {
		return err
	}
	ino.Blocks[IndBlock] = 0

	return w.storeInode(ino)
}
