// Package inode implements the fixed-size on-disk inode record and the
// inode table that holds MAX_FILES of them packed into consecutive sectors
// without straddling a sector boundary (spec.md §3, §4.3, §6).
package inode

import "fmt"

// Type distinguishes a regular file from a directory.
type Type int32

const (
	// TypeFile is a regular file inode.
	TypeFile Type = 0
	// TypeDir is a directory inode.
	TypeDir Type = 1
)

func (t Type) String() string {
	if t == TypeDir {
		return "dir"
	}
	return "file"
}

// Inode is the decoded form of one on-disk inode record.
type Inode struct {
	Size int64
	Type Type
	Data []int32 // sector indices into the data-block region; unused slots are 0
}

// New returns a zeroed inode of the given type, with a Data slice sized for maxSectorsPerFile.
func New(t Type, maxSectorsPerFile int) *Inode {
	return &Inode{
		Type: t,
		Data: make([]int32, maxSectorsPerFile),
	}
}

// Encode writes i into a buffer of exactly recordSize bytes:
// size (int32) || type (int32) || data[maxSectorsPerFile] (int32 each).
func (i *Inode) Encode(recordSize int) ([]byte, error) {
	maxSectorsPerFile := (recordSize - 8) / 4
	if maxSectorsPerFile != len(i.Data) {
		return nil, fmt.Errorf("inode: encode: record size %d implies %d data slots, have %d", recordSize, maxSectorsPerFile, len(i.Data))
	}
	b := make([]byte, recordSize)
	putInt32LE(b[0:4], int32(i.Size))
	putInt32LE(b[4:8], int32(i.Type))
	for idx, sector := range i.Data {
		putInt32LE(b[8+idx*4:12+idx*4], sector)
	}
	return b, nil
}

// Decode parses a recordSize-byte buffer into an Inode.
func Decode(b []byte, maxSectorsPerFile int) (*Inode, error) {
	recordSize := 8 + 4*maxSectorsPerFile
	if len(b) < recordSize {
		return nil, fmt.Errorf("inode: decode: buffer is %d bytes, need %d", len(b), recordSize)
	}
	i := &Inode{
		Size: int64(getInt32LE(b[0:4])),
		Type: Type(getInt32LE(b[4:8])),
		Data: make([]int32, maxSectorsPerFile),
	}
	for idx := range i.Data {
		i.Data[idx] = getInt32LE(b[8+idx*4 : 12+idx*4])
	}
	return i, nil
}

// IsZero reports whether the inode record is entirely zeroed (size 0, type
// file, no allocated data slots) — the state a freshly-allocated or just
// freed inode record should be in.
func (i *Inode) IsZero() bool {
	if i.Size != 0 || i.Type != TypeFile {
		return false
	}
	for _, s := range i.Data {
		if s != 0 {
			return false
		}
	}
	return true
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
