// Package dirent implements the fixed-size directory entry record (spec.md
// §3, §6): a NUL-padded name and a little-endian int32 inode number, packed
// DirentsPerSector to a sector with zero tail padding.
package dirent

import (
	"bytes"
	"fmt"

	"github.com/diskfs/minifs/internal/layout"
)

// Dirent is the decoded form of one directory entry.
type Dirent struct {
	Name  string
	Inode int32
}

// IsLegalName reports whether name may appear in a directory: non-empty,
// shorter than layout.DirentNameSize (room for the trailing NUL), and
// composed only of [A-Za-z0-9._-] (spec.md §4.4 — the stricter of the two
// source variants; '/' is never permitted inside a component).
func IsLegalName(name string) bool {
	if len(name) == 0 || len(name) >= layout.DirentNameSize {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// Encode writes d into a DirentSize-byte record: name, NUL-padded to
// layout.DirentNameSize, followed by the inode number as little-endian int32.
func (d *Dirent) Encode() ([]byte, error) {
	if len(d.Name) >= layout.DirentNameSize {
		return nil, fmt.Errorf("dirent: name %q too long for %d-byte field", d.Name, layout.DirentNameSize)
	}
	b := make([]byte, layout.DirentSize)
	copy(b[0:layout.DirentNameSize], d.Name)
	putInt32LE(b[layout.DirentNameSize:layout.DirentSize], d.Inode)
	return b, nil
}

// Decode parses a DirentSize-byte record.
func Decode(b []byte) (*Dirent, error) {
	if len(b) < layout.DirentSize {
		return nil, fmt.Errorf("dirent: buffer is %d bytes, need %d", len(b), layout.DirentSize)
	}
	nameField := b[0:layout.DirentNameSize]
	nul := bytes.IndexByte(nameField, 0)
	name := string(nameField)
	if nul >= 0 {
		name = string(nameField[:nul])
	}
	return &Dirent{
		Name:  name,
		Inode: getInt32LE(b[layout.DirentNameSize:layout.DirentSize]),
	}, nil
}

// IsZero reports whether the record is an unused (all-zero) slot.
func (d *Dirent) IsZero() bool {
	return d.Name == "" && d.Inode == 0
}

func putInt32LE(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

func getInt32LE(b []byte) int32 {
	return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}
