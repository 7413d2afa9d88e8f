package inode

import (
	"fmt"

	"github.com/diskfs/minifs/internal/blockdevice"
	"github.com/diskfs/minifs/internal/layout"
)

// Table reads and writes individual inode records from the inode table
// region. It keeps a single-sector cache (spec.md §4.3: "during path walking
// a single-sector cache is carried so consecutive children living in the
// same table sector share a read") so a directory full of siblings whose
// inodes land in the same table sector only pay for one read_sector call.
type Table struct {
	dev    *blockdevice.Device
	layout *layout.Layout

	cachedSector int
	cachedBuf    []byte
	cacheValid   bool
}

// NewTable builds a Table over dev using the given layout.
func NewTable(dev *blockdevice.Device, l *layout.Layout) *Table {
	return &Table{dev: dev, layout: l}
}

func (t *Table) sectorBuf(sector int) ([]byte, error) {
	if t.cacheValid && t.cachedSector == sector {
		buf := make([]byte, len(t.cachedBuf))
		copy(buf, t.cachedBuf)
		return buf, nil
	}
	buf := make([]byte, t.layout.SectorSize)
	if err := t.dev.ReadSector(sector, buf); err != nil {
		return nil, fmt.Errorf("inode: reading table sector %d: %w", sector, err)
	}
	t.cachedSector = sector
	t.cachedBuf = buf
	t.cacheValid = true
	return buf, nil
}

// Load returns the decoded inode n, along with the sector index and raw
// sector bytes it was found in (needed by Store to write a mutation back).
func (t *Table) Load(n int) (sectorIndex int, sectorBuf []byte, in *Inode, err error) {
	if n < 0 || n >= t.layout.MaxFiles {
		return 0, nil, nil, fmt.Errorf("inode: load: inode %d out of range [0,%d)", n, t.layout.MaxFiles)
	}
	sector, offset := t.layout.InodeLocation(n)
	buf, err := t.sectorBuf(sector)
	if err != nil {
		return 0, nil, nil, err
	}
	in, err = Decode(buf[offset:offset+t.layout.InodeSize], t.layout.MaxSectorsPerFile)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("inode: decoding inode %d: %w", n, err)
	}
	return sector, buf, in, nil
}

// Store writes sectorBuf (as mutated by the caller at the offset Load
// reported) back to sectorIndex, and invalidates the cache for that sector.
func (t *Table) Store(sectorIndex int, sectorBuf []byte) error {
	if err := t.dev.WriteSector(sectorIndex, sectorBuf); err != nil {
		return fmt.Errorf("inode: writing table sector %d: %w", sectorIndex, err)
	}
	if t.cacheValid && t.cachedSector == sectorIndex {
		t.cacheValid = false
	}
	return nil
}

// Put encodes in and writes it to inode n's record in one step, a
// convenience wrapper around Load+Store for callers that already have a
// whole Inode to persist (as opposed to mutating one in place).
func (t *Table) Put(n int, in *Inode) error {
	sector, buf, _, err := t.Load(n)
	if err != nil {
		return err
	}
	_, offset := t.layout.InodeLocation(n)
	rec, err := in.Encode(t.layout.InodeSize)
	if err != nil {
		return err
	}
	copy(buf[offset:offset+t.layout.InodeSize], rec)
	return t.Store(sector, buf)
}
