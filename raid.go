package wfs

import "bytes"

// raidRead and raidWrite are the RAID I/O layer of spec §4.1: they
// translate a logical data-region block number into disk-image byte-range
// reads/writes according to the active RAID mode. Callers always pass a
// full BLOCK_SIZE buffer; len(buf) must be <= BlockSize.

func (w *WFS) raidRead(blockNumber int64, buf []byte) error {
	switch w.sb.RaidMode {
	case RaidStripe:
		diskIdx := int(blockNumber % int64(w.disks.Len()))
		stripeIdx := blockNumber / int64(w.disks.Len())
		off := int64(w.sb.DBlocksPtr) + stripeIdx*BlockSize
		return w.disks.ReadAt(diskIdx, off, buf)

	case RaidMirror:
		off := int64(w.sb.DBlocksPtr) + blockNumber*BlockSize
		return w.disks.ReadAt(0, off, buf)

	case RaidMirrorMajor:
		return w.raidReadMajority(blockNumber, buf)

	default:
		return ErrInvalid.WithMessage("unknown raid mode")
	}
}

func (w *WFS) raidWrite(blockNumber int64, buf []byte) error {
	switch w.sb.RaidMode {
	case RaidStripe:
		diskIdx := int(blockNumber % int64(w.disks.Len()))
		stripeIdx := blockNumber / int64(w.disks.Len())
		off := int64(w.sb.DBlocksPtr) + stripeIdx*BlockSize
		return w.disks.WriteAt(diskIdx, off, buf)

	case RaidMirror, RaidMirrorMajor:
		off := int64(w.sb.DBlocksPtr) + blockNumber*BlockSize
		for d := 0; d < w.disks.Len(); d++ {
			if err := w.disks.WriteAt(d, off, buf); err != nil {
				return err
			}
		}
		return nil

	default:
		return ErrInvalid.WithMessage("unknown raid mode")
	}
}

// raidReadMajority implements RAID 1v: collect the block from every disk,
// score each copy by how many peers it byte-equals, and return the
// highest-scoring copy (ties broken by lowest disk index, spec §4.1).
func (w *WFS) raidReadMajority(blockNumber int64, buf []byte) error {
	off := int64(w.sb.DBlocksPtr) + blockNumber*BlockSize
	n := w.disks.Len()
	copies := make([][]byte, n)
	for d := 0; d < n; d++ {
		copies[d] = make([]byte, len(buf))
		if err := w.disks.ReadAt(d, off, copies[d]); err != nil {
			return err
		}
	}

	scores := make([]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if bytes.Equal(copies[i], copies[j]) {
				scores[i]++
				scores[j]++
			}
		}
	}

	best := 0
	for i := 1; i < n; i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}

	copy(buf, copies[best])
	return nil
}
