package wfs

import (
	"fmt"
	"log"
	"os"

	multierror "github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"
)

// Disk is one memory-mapped backing image.
type Disk struct {
	Path string
	file *os.File
	data []byte // mmap'd region, length == size
}

// DiskSet owns the memory-mapped regions of every disk backing a mount or
// a format run, for the lifetime of that mount/run (spec §5 "Lifetimes").
// It is the single owner: no reference counting, no concurrent mounts.
type DiskSet struct {
	disks []*Disk
}

// OpenDiskSet opens and mmaps every path in order, requiring each file to
// be at least minSize bytes (0 skips the check, as the mount driver does;
// Format passes the computed layout size). Every disk that fails to open, stat, or map is
// collected into a single aggregate error rather than stopping at the
// first, since a caller juggling up to MaxDisks images wants to see all of
// the bad ones at once.
func OpenDiskSet(paths []string, minSize int64) (*DiskSet, error) {
	if len(paths) == 0 {
		return nil, ErrInvalid.WithMessage("no disks specified")
	}
	if len(paths) > MaxDisks {
		return nil, ErrInvalid.WithMessage(fmt.Sprintf("too many disks: %d > %d", len(paths), MaxDisks))
	}

	ds := &DiskSet{disks: make([]*Disk, 0, len(paths))}
	var errs *multierror.Error

	for _, p := range paths {
		d, err := openDisk(p, minSize)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		ds.disks = append(ds.disks, d)
	}

	if err := errs.ErrorOrNil(); err != nil {
		ds.Close()
		return nil, err
	}

	log.Printf("wfs: mapped %d disk(s)", len(ds.disks))
	return ds, nil
}

func openDisk(path string, minSize int64) (*Disk, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := st.Size()
	if minSize > 0 && size < minSize {
		f.Close()
		return nil, ErrInvalid.WithMessage(fmt.Sprintf("disk image too small: have %d bytes, need %d", size, minSize))
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Disk{Path: path, file: f, data: data}, nil
}

// Len returns the number of mapped disks.
func (ds *DiskSet) Len() int { return len(ds.disks) }

// ReadAt copies len(buf) bytes from disk i at byte offset off.
func (ds *DiskSet) ReadAt(i int, off int64, buf []byte) error {
	d := ds.disks[i]
	if off < 0 || off+int64(len(buf)) > int64(len(d.data)) {
		return ErrIO.WithMessage("read out of bounds")
	}
	copy(buf, d.data[off:off+int64(len(buf))])
	return nil
}

// WriteAt copies buf into disk i at byte offset off.
func (ds *DiskSet) WriteAt(i int, off int64, buf []byte) error {
	d := ds.disks[i]
	if off < 0 || off+int64(len(buf)) > int64(len(d.data)) {
		return ErrIO.WithMessage("write out of bounds")
	}
	copy(d.data[off:off+int64(len(buf))], buf)
	return nil
}

// Path returns the file path disk i was opened from.
func (ds *DiskSet) Path(i int) string { return ds.disks[i].Path }

// Reorder permutes the mapped disks in place so that ds.disks[i] becomes
// the disk that was at order[i]. Open calls it with the order
// resolveDiskOrder returns, which keeps the disks in the order supplied.
func (ds *DiskSet) Reorder(order []int) {
	reordered := make([]*Disk, len(order))
	for i, from := range order {
		reordered[i] = ds.disks[from]
	}
	ds.disks = reordered
}

// Sync flushes every disk's dirty pages via msync. Not called by the core
// operations (spec §5 says the driver relies on the OS to persist dirty
// pages and doesn't call explicit sync); exposed for callers that want it
// anyway, e.g. before a deliberate test assertion on on-disk bytes.
func (ds *DiskSet) Sync() error {
	var errs *multierror.Error
	for _, d := range ds.disks {
		if err := unix.Msync(d.data, unix.MS_SYNC); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Close unmaps and closes every disk.
func (ds *DiskSet) Close() error {
	var errs *multierror.Error
	for _, d := range ds.disks {
		if d.data != nil {
			if err := unix.Munmap(d.data); err != nil {
				errs = multierror.Append(errs, err)
			}
			d.data = nil
		}
		if d.file != nil {
			if err := d.file.Close(); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	log.Printf("wfs: unmapped and closed %d disk(s)", len(ds.disks))
	return errs.ErrorOrNil()
}
