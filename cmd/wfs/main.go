// Command wfs mounts a previously formatted disk image set as a FUSE
// filesystem. Its argument parsing mirrors the original driver's hand
// parsing rather than a flag package: disks are the leading arguments
// that don't start with '-', the final argument is the mount point, and
// anything in between is passed through to the FUSE mount options.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/cs537-wisc/wfs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	disks, opts, mountpoint, err := parseArgs(args)
	if err != nil {
		return err
	}

	diskSet, err := wfs.OpenDiskSet(disks, 0)
	if err != nil {
		return fmt.Errorf("opening disks: %w", err)
	}

	fsys, err := wfs.Open(diskSet)
	if err != nil {
		diskSet.Close()
		return fmt.Errorf("mounting: %w", err)
	}

	mountOpts := &gofuse.Options{
		MountOptions: fuse.MountOptions{
			FsName:  "wfs",
			Name:    "wfs",
			Options: opts,
		},
	}

	server, err := gofuse.Mount(mountpoint, wfs.Root(fsys), mountOpts)
	if err != nil {
		fsys.Close()
		return fmt.Errorf("mount: %w", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		server.Unmount()
	}()

	server.Wait()
	return fsys.Close()
}

// parseArgs splits argv into the disk image paths, the raw FUSE mount
// option strings, and the final mount point, matching wfs.c's
// "disk1 [disk2 ...] [FUSE options] mount_point" convention: every
// argument up to the first one starting with '-' is a disk, and the
// very last argument is the mount point.
func parseArgs(args []string) (disks, opts []string, mountpoint string, err error) {
	if len(args) < 2 {
		return nil, nil, "", fmt.Errorf("usage: wfs disk1 [disk2 ...] [-o opt,...] mount_point")
	}

	i := 0
	for i < len(args)-1 && !strings.HasPrefix(args[i], "-") {
		disks = append(disks, args[i])
		i++
	}
	if len(disks) == 0 {
		return nil, nil, "", fmt.Errorf("no disks specified")
	}

	for i < len(args)-1 {
		opts = append(opts, strings.TrimPrefix(strings.TrimPrefix(args[i], "-o"), "-"))
		i++
	}

	mountpoint = args[len(args)-1]
	return disks, opts, mountpoint, nil
}
