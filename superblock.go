package wfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
)

// Superblock mirrors struct wfs_sb bit-for-bit: little-endian, natural
// alignment, one instance written to offset 0 of every disk at format
// time. SuperblockSize is the exact on-disk byte count; the mount driver
// requires every supplied disk's superblock to compare equal to this many
// bytes.
type Superblock struct {
	NumInodes     uint64
	NumDataBlocks uint64
	IBitmapPtr    uint64
	DBitmapPtr    uint64
	IBlocksPtr    uint64
	DBlocksPtr    uint64
	RaidMode      RaidMode
	NumDisks      int32
	Padding       [8]byte
	DiskOrder     [MaxDisks][MaxName]byte
}

// SuperblockSize is sizeof(struct wfs_sb): six 8-byte fields, two 4-byte
// fields, 8 bytes of padding, and MAX_DISKS*MAX_NAME bytes of disk_order.
const SuperblockSize = 6*8 + 4 + 4 + 8 + MaxDisks*MaxName

func (s *Superblock) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(SuperblockSize)
	for _, v := range []any{
		s.NumInodes, s.NumDataBlocks, s.IBitmapPtr, s.DBitmapPtr,
		s.IBlocksPtr, s.DBlocksPtr, int32(s.RaidMode), s.NumDisks, s.Padding,
	} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	for i := range s.DiskOrder {
		if err := binary.Write(buf, binary.LittleEndian, s.DiskOrder[i]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (s *Superblock) UnmarshalBinary(data []byte) error {
	if len(data) < SuperblockSize {
		return ErrIO.WithMessage(fmt.Sprintf("superblock truncated: got %d bytes, want %d", len(data), SuperblockSize))
	}
	r := bytes.NewReader(data)
	var raidMode int32
	for _, v := range []any{
		&s.NumInodes, &s.NumDataBlocks, &s.IBitmapPtr, &s.DBitmapPtr,
		&s.IBlocksPtr, &s.DBlocksPtr, &raidMode, &s.NumDisks, &s.Padding,
	} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	s.RaidMode = RaidMode(raidMode)
	for i := range s.DiskOrder {
		if err := binary.Read(r, binary.LittleEndian, &s.DiskOrder[i]); err != nil {
			return err
		}
	}
	return nil
}

// DiskOrderTag returns the canonical disk_order tag for slot i as a Go
// string, trimmed at the first NUL.
func (s *Superblock) DiskOrderTag(i int) string {
	return cstring(s.DiskOrder[i][:])
}

// setDiskOrderTag writes name (NUL-terminated, truncated to MaxName-1
// bytes) into slot i.
func (s *Superblock) setDiskOrderTag(i int, name string) {
	var buf [MaxName]byte
	n := copy(buf[:MaxName-1], name)
	buf[n] = 0
	s.DiskOrder[i] = buf
}

// Equal reports whether two superblocks are byte-for-byte identical, the
// invariant the mount driver requires across every supplied disk (spec
// §3, §8 invariant 1).
func (s *Superblock) Equal(o *Superblock) bool {
	a, err1 := s.MarshalBinary()
	b, err2 := o.MarshalBinary()
	if err1 != nil || err2 != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// Layout is the set of byte offsets computed by mkfs from a rounded-up
// inode count and data-block count (spec §4.8).
type Layout struct {
	NumInodes     uint64
	NumDataBlocks uint64
	IBitmapPtr    uint64
	DBitmapPtr    uint64
	IBlocksPtr    uint64
	DBlocksPtr    uint64
	TotalSize     uint64
}

// ComputeLayout lays out: superblock at 0; inode bitmap immediately after;
// data bitmap immediately after that; padding to the next BLOCK_SIZE
// boundary; then the inode table; then the data region.
func ComputeLayout(numInodes, numDataBlocks uint64) Layout {
	numInodes = roundUp32(numInodes)
	numDataBlocks = roundUp32(numDataBlocks)

	offset := uint64(SuperblockSize)

	iBitmapPtr := offset
	iBitmapSize := (numInodes + 7) / 8
	offset += iBitmapSize

	dBitmapPtr := offset
	dBitmapSize := (numDataBlocks + 7) / 8
	offset += dBitmapSize

	if r := offset % BlockSize; r != 0 {
		offset += BlockSize - r
	}

	iBlocksPtr := offset
	offset += numInodes * InodeSize

	dBlocksPtr := offset
	offset += numDataBlocks * BlockSize

	log.Printf("wfs: layout inodes=%d blocks=%d ibitmap=%d dbitmap=%d itable=%d dregion=%d total=%d",
		numInodes, numDataBlocks, iBitmapPtr, dBitmapPtr, iBlocksPtr, dBlocksPtr, offset)

	return Layout{
		NumInodes:     numInodes,
		NumDataBlocks: numDataBlocks,
		IBitmapPtr:    iBitmapPtr,
		DBitmapPtr:    dBitmapPtr,
		IBlocksPtr:    iBlocksPtr,
		DBlocksPtr:    dBlocksPtr,
		TotalSize:     offset,
	}
}

// cstring trims a fixed-width byte buffer at its first NUL byte.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
