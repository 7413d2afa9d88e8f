package minifs

import (
	"github.com/diskfs/minifs/internal/inode"
)

// FileCreate implements File_Create (spec.md §4.9): create an empty regular
// file at path, whose parent directory must already exist and which must
// not already exist.
func (fs *FileSystem) FileCreate(path string) *FSError {
	parent, child, name, err := fs.walk(path)
	if err != nil {
		return fs.setErr(ErrCreate, err)
	}
	if parent < 0 {
		return fs.setErr(ErrCreate, nil)
	}
	if child >= 0 {
		return fs.setErr(ErrCreate, nil) // already exists
	}

	if _, err := fs.addChild(parent, inode.TypeFile, name); err != nil {
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

// FileOpen implements File_Open: resolve path to an existing regular file
// and install it in the open-file table at cursor 0, spec.md invariant 7
// forbidding a second concurrent open of the same inode.
func (fs *FileSystem) FileOpen(path string) (int, *FSError) {
	_, child, _, err := fs.walk(path)
	if err != nil || child < 0 {
		return -1, fs.setErr(ErrNoSuchFile, err)
	}

	_, _, in, err := fs.table.Load(int(child))
	if err != nil {
		return -1, fs.setErr(ErrGeneral, err)
	}
	if in.Type != inode.TypeFile {
		return -1, fs.setErr(ErrNoSuchFile, nil)
	}
	if fs.openFiles.isOpen(child) {
		return -1, fs.setErr(ErrFileInUse, nil)
	}

	fd, err := fs.openFiles.alloc(child, in.Size)
	if err != nil {
		return -1, fs.setErr(ErrTooManyOpenFiles, err)
	}
	fs.lastErr = nil
	return fd, nil
}

// FileClose implements File_Close.
func (fs *FileSystem) FileClose(fd int) *FSError {
	if _, ok := fs.openFiles.get(fd); !ok {
		return fs.setErr(ErrBadFD, nil)
	}
	fs.openFiles.close(fd)
	fs.lastErr = nil
	return nil
}

// FileRead implements File_Read: copy up to len(buf) bytes from fd's cursor,
// advancing it, and return the count actually read.
func (fs *FileSystem) FileRead(fd int, buf []byte) (int, *FSError) {
	rec, ok := fs.openFiles.get(fd)
	if !ok {
		return 0, fs.setErr(ErrBadFD, nil)
	}
	n, err := fs.readFile(rec, buf)
	if err != nil {
		return 0, fs.setErr(ErrGeneral, err)
	}
	fs.lastErr = nil
	return n, nil
}

// FileWrite implements File_Write: write buf at fd's cursor, consulting the
// overwrite and tail policies per spec.md §4.8, and return the count
// actually written (possibly 0 if a policy cancels the write).
func (fs *FileSystem) FileWrite(fd int, buf []byte) (int, *FSError) {
	rec, ok := fs.openFiles.get(fd)
	if !ok {
		return 0, fs.setErr(ErrBadFD, nil)
	}
	n, ferr := fs.writeFile(rec, buf)
	if ferr != nil {
		fs.lastErr = ferr
		return n, ferr
	}
	fs.lastErr = nil
	return n, nil
}

// FileSeek implements File_Seek: move fd's cursor to an absolute byte offset.
func (fs *FileSystem) FileSeek(fd int, offset int) *FSError {
	rec, ok := fs.openFiles.get(fd)
	if !ok {
		return fs.setErr(ErrBadFD, nil)
	}
	if err := fs.seekFile(rec, offset); err != nil {
		return fs.setErr(ErrSeekOutOfBounds, err)
	}
	fs.lastErr = nil
	return nil
}

// FileUnlink implements File_Unlink: remove a regular file, refusing if it
// is currently open (spec.md §4.9).
func (fs *FileSystem) FileUnlink(path string) *FSError {
	parent, child, _, err := fs.walk(path)
	if err != nil || child < 0 {
		return fs.setErr(ErrNoSuchFile, err)
	}
	if fs.openFiles.isOpen(child) {
		return fs.setErr(ErrFileInUse, nil)
	}
	if ferr := fs.removeChild(parent, child, inode.TypeFile); ferr != nil {
		return fs.setErr(ferr.Kind, ferr.Cause)
	}
	fs.lastErr = nil
	return nil
}
