package wfs

import (
	"log"

	"github.com/boljen/go-bitmap"
)

// bitmapBytes returns how many bytes a bitmap of n bits occupies, matching
// mkfs's ceil(bits/8) sizing.
func bitmapBytes(n uint64) int {
	return int((n + 7) / 8)
}

// readBitmap fetches the inode or data bitmap region from disk i into a
// fresh bitmap.Bitmap, so callers get Get/Set without hand-rolling the
// byte/bit shift arithmetic mkfs and wfs.c do inline. Mirrors disko's own
// NewAllocator usage (allocatormap.go), which only ever sizes a Bitmap with
// bitmap.New and never wraps an existing []byte directly.
func (w *WFS) readBitmap(diskIndex int, ptr int64, nbits uint64) (bitmap.Bitmap, error) {
	buf := make([]byte, bitmapBytes(nbits))
	if err := w.disks.ReadAt(diskIndex, ptr, buf); err != nil {
		return nil, err
	}
	bm := bitmap.New(int(nbits))
	copy(bm, buf)
	return bm, nil
}

func (w *WFS) writeBitmap(diskIndex int, ptr int64, bm bitmap.Bitmap) error {
	return w.disks.WriteAt(diskIndex, ptr, bm)
}

// allocateInode performs a first-fit scan of the inode bitmap on disk 0,
// sets the bit there and mirrors it unconditionally to every other disk
// (the inode bitmap is always fully mirrored, spec §4.2/§4.3).
func (w *WFS) allocateInode() (int32, error) {
	bm, err := w.readBitmap(0, int64(w.sb.IBitmapPtr), w.sb.NumInodes)
	if err != nil {
		return 0, err
	}

	idx := -1
	for i := 0; i < int(w.sb.NumInodes); i++ {
		if !bm.Get(i) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, ErrNoSpace
	}

	bm.Set(idx, true)
	if err := w.writeBitmap(0, int64(w.sb.IBitmapPtr), bm); err != nil {
		return 0, err
	}
	for d := 1; d < w.disks.Len(); d++ {
		mirror, err := w.readBitmap(d, int64(w.sb.IBitmapPtr), w.sb.NumInodes)
		if err != nil {
			return 0, err
		}
		mirror.Set(idx, true)
		if err := w.writeBitmap(d, int64(w.sb.IBitmapPtr), mirror); err != nil {
			return 0, err
		}
	}

	log.Printf("wfs: allocated inode %d", idx)
	return int32(idx), nil
}

// freeInode clears the bit on every disk the original set() touched.
func (w *WFS) freeInode(num int32) error {
	for d := 0; d < w.disks.Len(); d++ {
		bm, err := w.readBitmap(d, int64(w.sb.IBitmapPtr), w.sb.NumInodes)
		if err != nil {
			return err
		}
		bm.Set(int(num), false)
		if err := w.writeBitmap(d, int64(w.sb.IBitmapPtr), bm); err != nil {
			return err
		}
	}
	log.Printf("wfs: freed inode %d", num)
	return nil
}

// allocateDataBlock performs a first-fit scan starting at index 1 (index 0
// of the data region is permanently reserved, spec §3), mirroring the bit
// to every disk only when raid_mode is mirror or mirror-with-vote (spec
// §4.2; RAID 0 keeps the canonical data bitmap on disk 0 only, per
// DESIGN.md's Open Question decision).
func (w *WFS) allocateDataBlock() (int64, error) {
	bm, err := w.readBitmap(0, int64(w.sb.DBitmapPtr), w.sb.NumDataBlocks)
	if err != nil {
		return 0, err
	}

	idx := -1
	for i := 1; i < int(w.sb.NumDataBlocks); i++ {
		if !bm.Get(i) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, ErrNoSpace
	}

	bm.Set(idx, true)
	if err := w.writeBitmap(0, int64(w.sb.DBitmapPtr), bm); err != nil {
		return 0, err
	}

	if w.sb.RaidMode == RaidMirror || w.sb.RaidMode == RaidMirrorMajor {
		for d := 1; d < w.disks.Len(); d++ {
			mirror, err := w.readBitmap(d, int64(w.sb.DBitmapPtr), w.sb.NumDataBlocks)
			if err != nil {
				return 0, err
			}
			mirror.Set(idx, true)
			if err := w.writeBitmap(d, int64(w.sb.DBitmapPtr), mirror); err != nil {
				return 0, err
			}
		}
	}

	log.Printf("wfs: allocated data block %d", idx)
	return int64(idx), nil
}

// freeDataBlock clears the bit on the same disks allocateDataBlock would
// have set it on.
func (w *WFS) freeDataBlock(num int64) error {
	bm, err := w.readBitmap(0, int64(w.sb.DBitmapPtr), w.sb.NumDataBlocks)
	if err != nil {
		return err
	}
	bm.Set(int(num), false)
	if err := w.writeBitmap(0, int64(w.sb.DBitmapPtr), bm); err != nil {
		return err
	}

	if w.sb.RaidMode == RaidMirror || w.sb.RaidMode == RaidMirrorMajor {
		for d := 1; d < w.disks.Len(); d++ {
			mirror, err := w.readBitmap(d, int64(w.sb.DBitmapPtr), w.sb.NumDataBlocks)
			if err != nil {
				return err
			}
			mirror.Set(int(num), false)
			if err := w.writeBitmap(d, int64(w.sb.DBitmapPtr), mirror); err != nil {
				return err
			}
		}
	}
	log.Printf("wfs: freed data block %d", num)
	return nil
}
