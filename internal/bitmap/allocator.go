package bitmap

import (
	"fmt"

	"github.com/diskfs/minifs/internal/blockdevice"
)

// Allocator is a write-through bitmap allocator (spec.md §4.2, §9
// "Bitmap write-through"): every FirstUnused/Reset call rereads the
// bitmap's sectors from the device, mutates a single bit, and writes the
// whole region straight back out; Init writes a freshly built region
// without reading the old one. This trades a little I/O for the
// invariant that the in-memory and on-disk bitmap never diverge, which the
// spec calls out as the rationale for the design.
type Allocator struct {
	dev          *blockdevice.Device
	startSector  int
	numSectors   int
	bits         int // addressable bit count (may be < region capacity)
	protectBelow int // Reset refuses to clear a bit below this index (0 = no protection)
}

// New constructs an Allocator over numSectors sectors starting at
// startSector, addressing exactly bits entries. protectBelow guards reserved
// metadata entries against Reset (used by the sector bitmap to protect the
// metadata region; pass 0 for the inode bitmap, which has no such guard).
func New(dev *blockdevice.Device, startSector, numSectors, bits, protectBelow int) *Allocator {
	return &Allocator{
		dev:          dev,
		startSector:  startSector,
		numSectors:   numSectors,
		bits:         bits,
		protectBelow: protectBelow,
	}
}

func (a *Allocator) readRegion() ([]byte, error) {
	buf := make([]byte, a.numSectors*a.dev.SectorSize())
	for i := 0; i < a.numSectors; i++ {
		sector := buf[i*a.dev.SectorSize() : (i+1)*a.dev.SectorSize()]
		if err := a.dev.ReadSector(a.startSector+i, sector); err != nil {
			return nil, fmt.Errorf("bitmap: reading region: %w", err)
		}
	}
	return buf, nil
}

func (a *Allocator) writeRegion(buf []byte) error {
	for i := 0; i < a.numSectors; i++ {
		sector := buf[i*a.dev.SectorSize() : (i+1)*a.dev.SectorSize()]
		if err := a.dev.WriteSector(a.startSector+i, sector); err != nil {
			return fmt.Errorf("bitmap: writing region: %w", err)
		}
	}
	return nil
}

// Init zero-fills the bitmap region, sets bits [0, reservedBits) to 1, and
// writes the result back.
func (a *Allocator) Init(reservedBits int) error {
	buf := make([]byte, a.numSectors*a.dev.SectorSize())
	bm := FromBytes(buf)
	for i := 0; i < reservedBits; i++ {
		if err := bm.Set(i); err != nil {
			return fmt.Errorf("bitmap: init: %w", err)
		}
	}
	return a.writeRegion(bm.ToBytes())
}

// FirstUnused scans from bit 0 upward, sets the first 0 bit to 1, writes the
// bitmap back, and returns its index. ok is false (index -1) if every bit is
// already 1.
func (a *Allocator) FirstUnused() (index int, ok bool, err error) {
	raw, err := a.readRegion()
	if err != nil {
		return -1, false, err
	}
	bm := FromBytes(raw)
	loc := bm.FirstUnused()
	if loc == -1 || loc >= a.bits {
		return -1, false, nil
	}
	if err := bm.Set(loc); err != nil {
		return -1, false, fmt.Errorf("bitmap: first-unused: %w", err)
	}
	if err := a.writeRegion(bm.ToBytes()); err != nil {
		return -1, false, err
	}
	return loc, true, nil
}

// Reset clears bit index, failing if it is already clear or falls within the
// protected (reserved) range.
func (a *Allocator) Reset(index int) error {
	if index < 0 || index >= a.bits {
		return fmt.Errorf("bitmap: reset: index %d out of range [0,%d)", index, a.bits)
	}
	if index < a.protectBelow {
		return fmt.Errorf("bitmap: reset: index %d is a reserved metadata entry", index)
	}
	raw, err := a.readRegion()
	if err != nil {
		return err
	}
	bm := FromBytes(raw)
	set, err := bm.IsSet(index)
	if err != nil {
		return fmt.Errorf("bitmap: reset: %w", err)
	}
	if !set {
		return fmt.Errorf("bitmap: reset: index %d is already free", index)
	}
	if err := bm.Clear(index); err != nil {
		return fmt.Errorf("bitmap: reset: %w", err)
	}
	return a.writeRegion(bm.ToBytes())
}

// PopCount returns the number of set bits currently on disk.
func (a *Allocator) PopCount() (int, error) {
	raw, err := a.readRegion()
	if err != nil {
		return 0, err
	}
	return FromBytes(raw).PopCount(), nil
}

// IsSet reports whether index is currently allocated.
func (a *Allocator) IsSet(index int) (bool, error) {
	raw, err := a.readRegion()
	if err != nil {
		return false, err
	}
	return FromBytes(raw).IsSet(index)
}

// FreeRuns reports the current free bits as contiguous runs, restricted to
// the addressable range [0, a.bits). Used by the consistency checker to show
// fragmentation instead of a bare free count.
func (a *Allocator) FreeRuns() ([]Run, error) {
	raw, err := a.readRegion()
	if err != nil {
		return nil, err
	}
	bm := FromBytes(raw)
	runs := bm.FreeRuns()
	out := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.Position >= a.bits {
			continue
		}
		if r.Position+r.Count > a.bits {
			r.Count = a.bits - r.Position
		}
		out = append(out, r)
	}
	return out, nil
}
