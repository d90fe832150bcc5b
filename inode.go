package wfs

import (
	"bytes"
	"encoding/binary"
)

// Inode mirrors struct wfs_inode. The on-disk stride of one inode-table
// record is InodeSize (512) bytes; the marshaled struct below is smaller,
// and the remainder of the record is zero padding (spec §3).
type Inode struct {
	Num    int32
	Mode   uint32
	Uid    uint32
	Gid    uint32
	Size   int64
	Nlinks int32
	Atim   int64
	Mtim   int64
	Ctim   int64
	Blocks [NBlocks]int64
}

// inodeWireSize is the number of bytes MarshalBinary actually produces,
// ahead of the zero padding out to InodeSize.
const inodeWireSize = 4 + 4 + 4 + 4 + 8 + 4 + 8 + 8 + 8 + NBlocks*8

func (i *Inode) IsDir() bool { return IsDirMode(i.Mode) }
func (i *Inode) IsReg() bool { return IsRegMode(i.Mode) }

// BlockCount returns ceil(size/BLOCK_SIZE), the st_blocks value getattr
// reports (spec §4.7).
func (i *Inode) BlockCount() int64 {
	return (i.Size + BlockSize - 1) / BlockSize
}

func (i *Inode) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(InodeSize)
	fields := []any{
		i.Num, i.Mode, i.Uid, i.Gid, i.Size, i.Nlinks, i.Atim, i.Mtim, i.Ctim, i.Blocks,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	if buf.Len() > InodeSize {
		return nil, ErrIO.WithMessage("inode record overflows InodeSize")
	}
	padded := make([]byte, InodeSize)
	copy(padded, buf.Bytes())
	return padded, nil
}

func (i *Inode) UnmarshalBinary(data []byte) error {
	if len(data) < inodeWireSize {
		return ErrIO.WithMessage("inode record truncated")
	}
	r := bytes.NewReader(data)
	fields := []any{
		&i.Num, &i.Mode, &i.Uid, &i.Gid, &i.Size, &i.Nlinks, &i.Atim, &i.Mtim, &i.Ctim, &i.Blocks,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}
