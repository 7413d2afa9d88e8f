package minifs

import (
	"fmt"

	"github.com/diskfs/minifs/internal/inode"
	"github.com/diskfs/minifs/internal/layout"
)

// DirCreate implements Dir_Create: create an empty subdirectory at path.
func (fs *FileSystem) DirCreate(path string) *FSError {
	parent, child, name, err := fs.walk(path)
	if err != nil {
		return fs.setErr(ErrCreate, err)
	}
	if parent < 0 {
		return fs.setErr(ErrCreate, nil)
	}
	if child >= 0 {
		return fs.setErr(ErrCreate, nil)
	}

	if _, err := fs.addChild(parent, inode.TypeDir, name); err != nil {
		switch err {
		case errNoInode:
			return fs.setErr(ErrCreate, err)
		case errNoSpace:
			return fs.setErr(ErrNoSpace, err)
		default:
			return fs.setErr(ErrGeneral, err)
		}
	}
	fs.lastErr = nil
	return nil
}

// DirSize implements Dir_Size: the size in bytes of the live entries of the
// directory at path, i.e. entry count times DirentSize (spec.md §4.9).
func (fs *FileSystem) DirSize(path string) (int, *FSError) {
	_, _, in, ferr := fs.resolveDir(path)
	if ferr != nil {
		return 0, ferr
	}
	return int(in.Size) * layout.DirentSize, nil
}

// DirRead implements Dir_Read in its original buffer-filling shape: n is the
// caller-supplied buffer capacity in bytes (in units of sizeof(dirent), per
// spec.md §8 property 7 and scenario S2), and the call fails BUFFER_TOO_SMALL
// unless n and len(buf) are both at least entries(path)*DirentSize. On
// success every live dirent (full on-disk record: name plus inode number) is
// copied into buf in order and the entry count is returned.
func (fs *FileSystem) DirRead(path string, buf []byte, n int) (int, *FSError) {
	_, _, in, ferr := fs.resolveDir(path)
	if ferr != nil {
		return 0, ferr
	}

	entries, err := fs.readDirEntries(in)
	if err != nil {
		return 0, fs.setErr(ErrGeneral, err)
	}

	required := len(entries) * layout.DirentSize
	if n < required || len(buf) < required {
		return 0, fs.setErr(ErrBufferTooSmall, nil)
	}

	for i, e := range entries {
		rec, err := e.Encode()
		if err != nil {
			return 0, fs.setErr(ErrGeneral, err)
		}
		off := i * layout.DirentSize
		copy(buf[off:off+layout.DirentSize], rec)
	}
	fs.lastErr = nil
	return len(entries), nil
}

// ReadDir is a convenience companion to DirRead returning entry names
// directly, for callers (the CLI, fsck) that don't need the raw buffer
// protocol. It reads the decoded entries itself rather than calling DirRead.
func (fs *FileSystem) ReadDir(path string) ([]string, *FSError) {
	_, _, in, ferr := fs.resolveDir(path)
	if ferr != nil {
		return nil, ferr
	}
	entries, err := fs.readDirEntries(in)
	if err != nil {
		return nil, fs.setErr(ErrGeneral, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	fs.lastErr = nil
	return names, nil
}

// DirUnlink implements Dir_Unlink: remove an empty, non-root subdirectory.
func (fs *FileSystem) DirUnlink(path string) *FSError {
	parent, child, _, err := fs.walk(path)
	if err != nil || child < 0 {
		return fs.setErr(ErrNoSuchDir, err)
	}
	if child == 0 {
		return fs.setErr(ErrRootDir, nil)
	}
	if ferr := fs.removeChild(parent, child, inode.TypeDir); ferr != nil {
		return fs.setErr(ferr.Kind, ferr.Cause)
	}
	fs.lastErr = nil
	return nil
}

// resolveDir walks path and loads its inode, failing with NoSuchDir if it
// doesn't resolve to an existing directory.
func (fs *FileSystem) resolveDir(path string) (parent, child int32, in *inode.Inode, ferr *FSError) {
	p, c, _, err := fs.walk(path)
	if err != nil || c < 0 {
		return 0, 0, nil, fs.setErr(ErrNoSuchDir, err)
	}
	_, _, loaded, err := fs.table.Load(int(c))
	if err != nil {
		return 0, 0, nil, fs.setErr(ErrGeneral, err)
	}
	if loaded.Type != inode.TypeDir {
		return 0, 0, nil, fs.setErr(ErrNoSuchDir, fmt.Errorf("inode %d is not a directory", c))
	}
	return p, c, loaded, nil
}
