// Package layout computes the five-region disk layout of a minifs image and
// encodes/checks its superblock.
//
// Region order, in sectors: Superblock (1) -> Inode Bitmap -> Sector Bitmap ->
// Inode Table -> Data Blocks. Every derived size is a pure function of the
// four build parameters (sector size, total sectors, max files, max sectors
// per file), so the layout can be recomputed from a Params value alone.
package layout

import "fmt"

// Magic identifies a valid minifs image. It lives in the first four bytes of
// sector 0, little-endian, per spec.
const Magic uint32 = 0xDEADBEEF

// InodeSize is the on-disk encoded size of one inode record: size (int32) +
// type (int32) + data[MaxSectorsPerFile] (int32 each).
func InodeSize(maxSectorsPerFile int) int {
	return 8 + 4*maxSectorsPerFile
}

// DirentNameSize is MAX_NAME: the fixed NUL-padded name field width of a
// directory entry. Legal names are at most DirentNameSize-1 bytes.
const DirentNameSize = 16

// DirentSize is sizeof(dirent): name field plus a little-endian int32 inode number.
const DirentSize = DirentNameSize + 4

// Params are the compile-time-equivalent constants of spec.md §3: fixed for
// the lifetime of a given image, but exposed as a value (not literal
// constants) so a test can build a small image instead of a production-sized
// one.
type Params struct {
	SectorSize        int
	TotalSectors      int
	MaxFiles          int
	MaxSectorsPerFile int
}

// DefaultParams is a reasonable production-sized image: 512-byte sectors,
// a 4 MiB image, 1024 inodes, files up to 30 sectors (15 KiB).
var DefaultParams = Params{
	SectorSize:        512,
	TotalSectors:      8192,
	MaxFiles:          1024,
	MaxSectorsPerFile: 30,
}

// Layout holds every derived region boundary for a given Params.
type Layout struct {
	Params

	InodeBitmapSize    int
	InodeBitmapSectors int

	SectorBitmapSize    int
	SectorBitmapSectors int

	InodeSize         int
	InodesPerSector   int
	InodeTableSectors int

	DirentsPerSector int

	InodeBitmapStart  int
	SectorBitmapStart int
	InodeTableStart   int
	DataBlockStart    int
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// New validates p and computes the full region layout.
func New(p Params) (*Layout, error) {
	if p.SectorSize <= 0 {
		return nil, fmt.Errorf("layout: sector size must be positive, got %d", p.SectorSize)
	}
	if p.TotalSectors <= 0 {
		return nil, fmt.Errorf("layout: total sectors must be positive, got %d", p.TotalSectors)
	}
	if p.MaxFiles <= 0 {
		return nil, fmt.Errorf("layout: max files must be positive, got %d", p.MaxFiles)
	}
	if p.MaxSectorsPerFile <= 0 {
		return nil, fmt.Errorf("layout: max sectors per file must be positive, got %d", p.MaxSectorsPerFile)
	}

	l := &Layout{Params: p}

	l.InodeBitmapSize = ceilDiv(p.MaxFiles, 8)
	l.InodeBitmapSectors = ceilDiv(l.InodeBitmapSize, p.SectorSize)

	l.SectorBitmapSize = ceilDiv(p.TotalSectors, 8)
	l.SectorBitmapSectors = ceilDiv(l.SectorBitmapSize, p.SectorSize)

	l.InodeSize = InodeSize(p.MaxSectorsPerFile)
	l.InodesPerSector = p.SectorSize / l.InodeSize
	if l.InodesPerSector == 0 {
		return nil, fmt.Errorf("layout: sector size %d too small to hold one inode of size %d", p.SectorSize, l.InodeSize)
	}
	l.InodeTableSectors = ceilDiv(p.MaxFiles, l.InodesPerSector)

	l.DirentsPerSector = p.SectorSize / DirentSize
	if l.DirentsPerSector == 0 {
		return nil, fmt.Errorf("layout: sector size %d too small to hold one dirent of size %d", p.SectorSize, DirentSize)
	}

	l.InodeBitmapStart = 1
	l.SectorBitmapStart = l.InodeBitmapStart + l.InodeBitmapSectors
	l.InodeTableStart = l.SectorBitmapStart + l.SectorBitmapSectors
	l.DataBlockStart = l.InodeTableStart + l.InodeTableSectors

	if l.DataBlockStart >= p.TotalSectors {
		return nil, fmt.Errorf("layout: metadata regions (%d sectors) leave no room for data blocks in a %d sector image", l.DataBlockStart, p.TotalSectors)
	}

	return l, nil
}

// InodeLocation returns the sector holding inode n, and the byte offset of
// its record within that sector.
func (l *Layout) InodeLocation(n int) (sector int, offset int) {
	sector = l.InodeTableStart + n/l.InodesPerSector
	offset = (n % l.InodesPerSector) * l.InodeSize
	return
}

// DirentLocation returns the data slot (index into an inode's data[]) and the
// within-sector record index for directory entry i.
func (l *Layout) DirentLocation(i int) (group int, index int) {
	return i / l.DirentsPerSector, i % l.DirentsPerSector
}

// EncodeSuperblock returns a zero-filled sector with the magic number at
// offset 0, little-endian.
func (l *Layout) EncodeSuperblock() []byte {
	b := make([]byte, l.SectorSize)
	putUint32LE(b, Magic)
	return b
}

// CheckSuperblock reports whether a sector 0 buffer carries the expected magic.
func CheckSuperblock(sector []byte) bool {
	if len(sector) < 4 {
		return false
	}
	return getUint32LE(sector) == Magic
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
