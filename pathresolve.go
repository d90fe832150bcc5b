package wfs

import "strings"

// resolvePath walks a '/'-separated absolute path from the root inode,
// following each dentry in turn (spec §4.6, grounded on wfs.c's
// traverse_path). An empty path or "/" resolves to the root inode.
func (w *WFS) resolvePath(path string) (*Inode, error) {
	ino, err := w.loadInode(RootInode)
	if err != nil {
		return nil, err
	}

	for _, name := range splitPath(path) {
		if !ino.IsDir() {
			return nil, ErrNotDir
		}
		d, err := w.findDentry(ino, name)
		if err != nil {
			return nil, err
		}
		ino, err = w.loadInode(d.Num)
		if err != nil {
			return nil, err
		}
	}

	return ino, nil
}

// resolveParent splits path into its parent directory inode and final
// path component, the shape every create/unlink/mkdir/rmdir operation
// needs: the parent to edit plus the name to add or remove.
func (w *WFS) resolveParent(path string) (*Inode, string, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, "", ErrInvalid.WithMessage("path has no final component")
	}

	parentPath := "/" + strings.Join(parts[:len(parts)-1], "/")
	parent, err := w.resolvePath(parentPath)
	if err != nil {
		return nil, "", err
	}
	if !parent.IsDir() {
		return nil, "", ErrNotDir
	}

	return parent, parts[len(parts)-1], nil
}

// splitPath breaks an absolute or relative path into non-empty components,
// collapsing repeated slashes the way the kernel's path lookup already
// does before handing FUSE a single component per call.
func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
