package minifs

import (
	"errors"
	"fmt"

	"github.com/diskfs/minifs/internal/dirent"
	"github.com/diskfs/minifs/internal/inode"
	"github.com/diskfs/minifs/internal/layout"
)

var errNoSpace = errors.New("minifs: sector bitmap exhausted")
var errNoInode = errors.New("minifs: inode bitmap exhausted")

func (fs *FileSystem) zeroSector(index int32) error {
	buf := make([]byte, fs.layout.SectorSize)
	return fs.dev.WriteSector(int(index), buf)
}

func (fs *FileSystem) allocateDataSector() (int32, error) {
	idx, ok, err := fs.sectorBitmap.FirstUnused()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errNoSpace
	}
	return int32(idx), nil
}

func (fs *FileSystem) freeDataSector(idx int32) error {
	return fs.sectorBitmap.Reset(int(idx))
}

func (fs *FileSystem) allocateInodeNumber() (int32, error) {
	idx, ok, err := fs.inodeBitmap.FirstUnused()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errNoInode
	}
	return int32(idx), nil
}

func (fs *FileSystem) freeInodeNumber(idx int32) error {
	return fs.inodeBitmap.Reset(int(idx))
}

// readDirEntries returns the live dirents of a directory inode, in order,
// stopping at in.Size entries (spec.md's fixed "i >= nentries" rule; the
// one-past-the-end read in one source variant is not reproduced).
func (fs *FileSystem) readDirEntries(in *inode.Inode) ([]*dirent.Dirent, error) {
	nentries := int(in.Size)
	entries := make([]*dirent.Dirent, 0, nentries)
	dps := fs.layout.DirentsPerSector
	for i := 0; i < nentries; {
		group := i / dps
		sectorNum := in.Data[group]
		buf := make([]byte, fs.layout.SectorSize)
		if err := fs.dev.ReadSector(int(sectorNum), buf); err != nil {
			return nil, fmt.Errorf("reading directory sector: %w", err)
		}
		limit := (group + 1) * dps
		if limit > nentries {
			limit = nentries
		}
		for ; i < limit; i++ {
			offset := (i % dps) * layout.DirentSize
			d, err := dirent.Decode(buf[offset : offset+layout.DirentSize])
			if err != nil {
				return nil, fmt.Errorf("decoding directory entry %d: %w", i, err)
			}
			entries = append(entries, d)
		}
	}
	return entries, nil
}

// findInDir scans a directory's entries linearly for name, by byte-exact
// equality, returning the matching entry's inode number (spec.md §4.4).
func (fs *FileSystem) findInDir(in *inode.Inode, name string) (child int32, found bool, err error) {
	entries, err := fs.readDirEntries(in)
	if err != nil {
		return 0, false, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e.Inode, true, nil
		}
	}
	return 0, false, nil
}

// addChild implements spec.md §4.5 add_child: allocate a new inode, zero and
// type it, then append a dirent for it to parent's directory body.
func (fs *FileSystem) addChild(parentInode int32, t inode.Type, name string) (int32, error) {
	newNum, err := fs.allocateInodeNumber()
	if err != nil {
		return 0, err
	}

	newInode := inode.New(t, fs.layout.MaxSectorsPerFile)
	if err := fs.table.Put(int(newNum), newInode); err != nil {
		return 0, err
	}

	if err := fs.appendDirent(parentInode, &dirent.Dirent{Name: name, Inode: newNum}); err != nil {
		// best-effort unwind: free what we just allocated so a failed
		// create doesn't leak an inode.
		_ = fs.freeInodeNumber(newNum)
		return 0, err
	}

	return newNum, nil
}

// appendDirent implements steps 3-6 of add_child: locate (or grow) the
// parent's last data slot and write the new entry into it.
func (fs *FileSystem) appendDirent(parentInode int32, d *dirent.Dirent) error {
	sector, buf, parent, err := fs.table.Load(int(parentInode))
	if err != nil {
		return err
	}
	if parent.Type != inode.TypeDir {
		return fmt.Errorf("minifs: inode %d is not a directory", parentInode)
	}

	dps := fs.layout.DirentsPerSector
	n := int(parent.Size)
	group := n / dps
	if group >= fs.layout.MaxSectorsPerFile {
		return fmt.Errorf("minifs: directory inode %d has no room for another data slot", parentInode)
	}

	var dataSector []byte
	if n%dps == 0 {
		newSector, err := fs.allocateDataSector()
		if err != nil {
			return err
		}
		parent.Data[group] = newSector
		dataSector = make([]byte, fs.layout.SectorSize)
	} else {
		dataSector = make([]byte, fs.layout.SectorSize)
		if err := fs.dev.ReadSector(int(parent.Data[group]), dataSector); err != nil {
			return fmt.Errorf("reading directory sector: %w", err)
		}
	}

	rec, err := d.Encode()
	if err != nil {
		return err
	}
	offset := (n % dps) * layout.DirentSize
	copy(dataSector[offset:offset+layout.DirentSize], rec)
	if err := fs.dev.WriteSector(int(parent.Data[group]), dataSector); err != nil {
		return fmt.Errorf("writing directory sector: %w", err)
	}

	parent.Size++
	rec2, err := parent.Encode(fs.layout.InodeSize)
	if err != nil {
		return err
	}
	_, ioff := fs.layout.InodeLocation(int(parentInode))
	copy(buf[ioff:ioff+fs.layout.InodeSize], rec2)
	return fs.table.Store(sector, buf)
}

// removeChild implements spec.md §4.5 remove_child.
func (fs *FileSystem) removeChild(parentInode, childInode int32, expectedType inode.Type) *FSError {
	_, _, child, err := fs.table.Load(int(childInode))
	if err != nil {
		return fsErr(ErrGeneral, err)
	}
	if child.Type != expectedType {
		return fsErr(ErrGeneral, fmt.Errorf("minifs: inode %d is not a %s", childInode, expectedType))
	}
	if child.Type == inode.TypeDir && child.Size > 0 {
		return fsErr(ErrDirNotEmpty, nil)
	}

	if child.Type == inode.TypeFile {
		for _, sec := range child.Data {
			if sec == 0 {
				continue
			}
			if err := fs.zeroSector(sec); err != nil {
				return fsErr(ErrGeneral, err)
			}
			if err := fs.freeDataSector(sec); err != nil {
				return fsErr(ErrGeneral, err)
			}
		}
	}

	zeroed := inode.New(inode.TypeFile, fs.layout.MaxSectorsPerFile)
	if err := fs.table.Put(int(childInode), zeroed); err != nil {
		return fsErr(ErrGeneral, err)
	}
	if err := fs.freeInodeNumber(childInode); err != nil {
		return fsErr(ErrGeneral, err)
	}

	if err := fs.removeDirent(parentInode, childInode); err != nil {
		return fsErr(ErrGeneral, err)
	}
	return nil
}

// removeDirent implements steps 4-6 of remove_child: find the dirent
// referencing childInode, swap the last entry of the last group into its
// place (preserving the packed-array invariant), and shrink the directory.
func (fs *FileSystem) removeDirent(parentInode, childInode int32) error {
	sector, buf, parent, err := fs.table.Load(int(parentInode))
	if err != nil {
		return err
	}

	entries, err := fs.readDirEntries(parent)
	if err != nil {
		return err
	}

	removeIdx := -1
	for i, e := range entries {
		if e.Inode == childInode {
			removeIdx = i
			break
		}
	}
	if removeIdx == -1 {
		return fmt.Errorf("minifs: no dirent for inode %d in parent %d", childInode, parentInode)
	}

	dps := fs.layout.DirentsPerSector
	lastIdx := len(entries) - 1
	lastGroup := lastIdx / dps

	if removeIdx != lastIdx {
		if err := fs.writeDirentAt(parent, removeIdx, entries[lastIdx]); err != nil {
			return err
		}
	}

	remainderBefore := lastIdx%dps + 1
	if remainderBefore == 1 {
		// the last group is now empty: free its data sector
		if err := fs.zeroSector(parent.Data[lastGroup]); err != nil {
			return err
		}
		if err := fs.freeDataSector(parent.Data[lastGroup]); err != nil {
			return err
		}
		parent.Data[lastGroup] = 0
	} else {
		if err := fs.zeroDirentAt(parent, lastIdx); err != nil {
			return err
		}
	}

	parent.Size--
	rec, err := parent.Encode(fs.layout.InodeSize)
	if err != nil {
		return err
	}
	_, ioff := fs.layout.InodeLocation(int(parentInode))
	copy(buf[ioff:ioff+fs.layout.InodeSize], rec)
	return fs.table.Store(sector, buf)
}

func (fs *FileSystem) writeDirentAt(parent *inode.Inode, index int, d *dirent.Dirent) error {
	dps := fs.layout.DirentsPerSector
	group := index / dps
	buf := make([]byte, fs.layout.SectorSize)
	if err := fs.dev.ReadSector(int(parent.Data[group]), buf); err != nil {
		return err
	}
	rec, err := d.Encode()
	if err != nil {
		return err
	}
	offset := (index % dps) * layout.DirentSize
	copy(buf[offset:offset+layout.DirentSize], rec)
	return fs.dev.WriteSector(int(parent.Data[group]), buf)
}

func (fs *FileSystem) zeroDirentAt(parent *inode.Inode, index int) error {
	return fs.writeDirentAt(parent, index, &dirent.Dirent{})
}
