package minifs

import "fmt"

// openFileRecord is the process-wide open-file table entry of spec.md §3/§4.7:
// inode 0 means the slot is free (inode 0 is always the root directory, so
// it can never legitimately be an open regular file).
type openFileRecord struct {
	inode   int32
	size    int64
	pos     int // sector index within inode.Data[]
	posByte int // byte offset within that sector, 0 <= posByte < SectorSize
}

type openFileTable struct {
	records []openFileRecord
}

func newOpenFileTable(capacity int) *openFileTable {
	return &openFileTable{records: make([]openFileRecord, capacity)}
}

// isOpen reports whether inode is already referenced by some slot
// (spec.md invariant 7: at most one open-file record per inode).
func (t *openFileTable) isOpen(ino int32) bool {
	for _, r := range t.records {
		if r.inode == ino {
			return true
		}
	}
	return false
}

// alloc returns the lowest-indexed free slot, populated with ino/size and a
// cursor at the start of the file.
func (t *openFileTable) alloc(ino int32, size int64) (fd int, err error) {
	for i := range t.records {
		if t.records[i].inode == 0 {
			t.records[i] = openFileRecord{inode: ino, size: size}
			return i, nil
		}
	}
	return -1, fmt.Errorf("open-file table is full")
}

func (t *openFileTable) get(fd int) (*openFileRecord, bool) {
	if fd < 0 || fd >= len(t.records) || t.records[fd].inode == 0 {
		return nil, false
	}
	return &t.records[fd], true
}

func (t *openFileTable) close(fd int) {
	t.records[fd] = openFileRecord{}
}
