package wfs

import (
	"bytes"
	"encoding/binary"
)

// Dentry mirrors struct wfs_dentry: a NUL-terminated name and the inode
// number it refers to. An all-zero Dentry (empty name) is a free slot.
type Dentry struct {
	Name [MaxName]byte
	Num  int32
}

func (d Dentry) NameString() string {
	return cstring(d.Name[:])
}

func (d Dentry) Empty() bool {
	return d.NameString() == ""
}

func newDentry(name string, num int32) Dentry {
	var d Dentry
	n := copy(d.Name[:MaxName-1], name)
	d.Name[n] = 0
	d.Num = num
	return d
}

func (d Dentry) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(DentrySize)
	if err := binary.Write(buf, binary.LittleEndian, d.Name); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, d.Num); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Dentry) UnmarshalBinary(data []byte) error {
	if len(data) < DentrySize {
		return ErrIO.WithMessage("dentry truncated")
	}
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &d.Name); err != nil {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &d.Num)
}
