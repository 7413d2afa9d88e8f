// Package bitmap implements the bit-indexed free-space bitmaps used for both
// the inode bitmap and the sector bitmap (spec.md §4.2): bit i lives at byte
// i/8, LSB-first within the byte.
package bitmap

import "fmt"

// Bitmap is a plain in-memory bit array, independent of how it is persisted.
type Bitmap struct {
	bits []byte
}

// FromBytes copies b into a new Bitmap.
func FromBytes(b []byte) *Bitmap {
	bits := make([]byte, len(b))
	copy(bits, b)
	return &Bitmap{bits: bits}
}

// ToBytes returns a copy of the raw bytes underlying the bitmap.
func (bm *Bitmap) ToBytes() []byte {
	b := make([]byte, len(bm.bits))
	copy(b, bm.bits)
	return b
}

func findBitForIndex(index int) (byteNumber int, bitNumber uint8) {
	return index / 8, uint8(index % 8)
}

// IsSet reports whether bit location is 1.
func (bm *Bitmap) IsSet(location int) (bool, error) {
	if location < 0 {
		return false, fmt.Errorf("bitmap: location %d is negative", location)
	}
	byteNumber, bitNumber := findBitForIndex(location)
	if byteNumber >= len(bm.bits) {
		return false, fmt.Errorf("bitmap: location %d is not in %d-bit bitmap", location, len(bm.bits)*8)
	}
	mask := byte(0x1) << bitNumber
	return bm.bits[byteNumber]&mask == mask, nil
}

// Set sets bit location to 1.
func (bm *Bitmap) Set(location int) error {
	byteNumber, bitNumber, err := bm.checkedLocation(location)
	if err != nil {
		return err
	}
	bm.bits[byteNumber] |= byte(0x1) << bitNumber
	return nil
}

// Clear sets bit location to 0.
func (bm *Bitmap) Clear(location int) error {
	byteNumber, bitNumber, err := bm.checkedLocation(location)
	if err != nil {
		return err
	}
	bm.bits[byteNumber] &^= byte(0x1) << bitNumber
	return nil
}

func (bm *Bitmap) checkedLocation(location int) (int, uint8, error) {
	if location < 0 {
		return 0, 0, fmt.Errorf("bitmap: location %d is negative", location)
	}
	byteNumber, bitNumber := findBitForIndex(location)
	if byteNumber >= len(bm.bits) {
		return 0, 0, fmt.Errorf("bitmap: location %d is not in %d-bit bitmap", location, len(bm.bits)*8)
	}
	return byteNumber, bitNumber, nil
}

// FirstUnused scans from bit 0 upward and returns the first 0 bit, or -1 if
// the bitmap is entirely 1s. It does not mutate the bitmap; the caller
// decides whether to Set it.
func (bm *Bitmap) FirstUnused() int {
	for i, b := range bm.bits {
		if b == 0xff {
			continue
		}
		for j := uint8(0); j < 8; j++ {
			mask := byte(0x1) << j
			if b&mask != mask {
				return i*8 + int(j)
			}
		}
	}
	return -1
}

// PopCount returns the number of 1 bits, i.e. the number of currently-used entries.
func (bm *Bitmap) PopCount() int {
	count := 0
	for _, b := range bm.bits {
		for b != 0 {
			b &= b - 1
			count++
		}
	}
	return count
}

// Len returns the number of addressable bits.
func (bm *Bitmap) Len() int {
	return len(bm.bits) * 8
}

// Run is a contiguous span of same-state bits, reported by position and length.
type Run struct {
	Position int
	Count    int
}

// FreeRuns returns the free (0) bits as a sorted list of contiguous runs, for
// a consistency checker that wants to report fragmentation rather than a bare
// count.
func (bm *Bitmap) FreeRuns() []Run {
	var runs []Run
	location := -1
	count := 0
	total := bm.Len()
	for i := 0; i < total; i++ {
		set, _ := bm.IsSet(i)
		switch {
		case !set:
			if location == -1 {
				location = i
			}
			count++
		case location != -1:
			runs = append(runs, Run{Position: location, Count: count})
			location, count = -1, 0
		}
	}
	if location != -1 {
		runs = append(runs, Run{Position: location, Count: count})
	}
	return runs
}
