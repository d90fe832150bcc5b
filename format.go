package wfs

import (
	"fmt"
	"log"
	"os"
)

// FormatOptions configures a fresh filesystem image set (spec §6,
// grounded on mkfs.c's option parsing).
type FormatOptions struct {
	RaidMode      RaidMode
	DiskPaths     []string
	NumInodes     uint64
	NumDataBlocks uint64
}

// minDisksForRaid mirrors mkfs.c's min_disks_required switch: every
// supported RAID mode here needs at least two disks.
func minDisksForRaid(mode RaidMode) int {
	switch mode {
	case RaidStripe, RaidMirror, RaidMirrorMajor:
		return 2
	default:
		return 0
	}
}

// Format lays out a brand-new filesystem across opts.DiskPaths: computes
// the on-disk layout, writes an identical superblock (with positional
// disk_order tags) to every disk, zeroes both bitmaps except inode 0,
// and writes the root directory inode (spec §6).
func Format(opts FormatOptions) error {
	if len(opts.DiskPaths) == 0 {
		return ErrInvalid.WithMessage("no disks specified")
	}
	if len(opts.DiskPaths) > MaxDisks {
		return ErrInvalid.WithMessage(fmt.Sprintf("too many disks: %d > %d", len(opts.DiskPaths), MaxDisks))
	}
	if need := minDisksForRaid(opts.RaidMode); len(opts.DiskPaths) < need {
		return ErrInvalid.WithMessage(fmt.Sprintf("raid mode %s needs at least %d disks", opts.RaidMode, need))
	}
	if opts.NumInodes == 0 || opts.NumDataBlocks == 0 {
		return ErrInvalid.WithMessage("num inodes and num data blocks must be positive")
	}

	layout := ComputeLayout(opts.NumInodes, opts.NumDataBlocks)

	disks, err := OpenDiskSet(opts.DiskPaths, int64(layout.TotalSize))
	if err != nil {
		return err
	}
	defer disks.Close()

	sb := &Superblock{
		NumInodes:     layout.NumInodes,
		NumDataBlocks: layout.NumDataBlocks,
		IBitmapPtr:    layout.IBitmapPtr,
		DBitmapPtr:    layout.DBitmapPtr,
		IBlocksPtr:    layout.IBlocksPtr,
		DBlocksPtr:    layout.DBlocksPtr,
		RaidMode:      opts.RaidMode,
		NumDisks:      int32(len(opts.DiskPaths)),
	}
	for i := range opts.DiskPaths {
		sb.setDiskOrderTag(i, fmt.Sprintf("DISK_%04d", i+1))
	}

	sbBytes, err := sb.MarshalBinary()
	if err != nil {
		return err
	}

	iBitmapSize := bitmapBytes(layout.NumInodes)
	dBitmapSize := bitmapBytes(layout.NumDataBlocks)
	iBitmap := make([]byte, iBitmapSize)
	iBitmap[0] |= 0x01 // inode 0 (root) is always allocated
	dBitmap := make([]byte, dBitmapSize)

	for d := 0; d < disks.Len(); d++ {
		if err := disks.WriteAt(d, 0, sbBytes); err != nil {
			return err
		}
		if err := disks.WriteAt(d, int64(sb.IBitmapPtr), iBitmap); err != nil {
			return err
		}
		if err := disks.WriteAt(d, int64(sb.DBitmapPtr), dBitmap); err != nil {
			return err
		}
	}

	now := formatTime()
	root := &Inode{
		Num:    RootInode,
		Mode:   S_IFDIR | 0755,
		Nlinks: 2,
		Uid:    uint32(os.Getuid()),
		Gid:    uint32(os.Getgid()),
		Atim:   now,
		Mtim:   now,
		Ctim:   now,
	}
	rootBytes, err := root.MarshalBinary()
	if err != nil {
		return err
	}
	rootOff := int64(sb.IBlocksPtr) + int64(RootInode)*InodeSize
	for d := 0; d < disks.Len(); d++ {
		if err := disks.WriteAt(d, rootOff, rootBytes); err != nil {
			return err
		}
	}

	log.Printf("wfs: formatted %d disk(s), raid=%s, inodes=%d, blocks=%d, total_size=%d bytes",
		disks.Len(), sb.RaidMode, sb.NumInodes, sb.NumDataBlocks, layout.TotalSize)

	return disks.Sync()
}

// formatTime returns the current Unix time. A var so tests can pin it,
// matching fsnode.go's now().
var formatTime = func() int64 { return now() }
