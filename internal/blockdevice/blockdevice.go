// Package blockdevice implements the block device contract consumed by the
// rest of minifs: a fixed-size array of SECTOR_SIZE-byte sectors, addressed
// synchronously by whole-sector reads and writes, with load-from-file and
// save-to-file operations (spec.md §4.1). It holds the entire image in
// memory between Load and Save; no caching or write reordering happens
// beyond that.
package blockdevice

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio"
	"github.com/sirupsen/logrus"

	"github.com/diskfs/minifs/backend"
	"github.com/diskfs/minifs/backend/file"
)

// ErrNotExist is returned by Load when the backing file does not exist,
// distinguishing that case from other I/O failures per spec.md §4.1.
var ErrNotExist = errors.New("blockdevice: image file does not exist")

// Device is the in-memory sector array backing a minifs image.
type Device struct {
	sectorSize   int
	totalSectors int
	data         []byte
	log          logrus.FieldLogger
}

// New zero-fills a sector array of the given shape. This is the device's
// init() operation.
func New(sectorSize, totalSectors int, log logrus.FieldLogger) (*Device, error) {
	if sectorSize <= 0 || totalSectors <= 0 {
		return nil, fmt.Errorf("blockdevice: invalid shape sectorSize=%d totalSectors=%d", sectorSize, totalSectors)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Device{
		sectorSize:   sectorSize,
		totalSectors: totalSectors,
		data:         make([]byte, sectorSize*totalSectors),
		log:          log,
	}, nil
}

// RawLen returns the length, in bytes, of whatever is currently held in
// memory — the fixed sectorSize*totalSectors after New or a Load of a
// correctly-sized image, but potentially anything after Load of a foreign
// file. Callers that need to validate image size before trusting sector
// reads (Boot does) should compare this against SectorSize()*TotalSectors().
func (d *Device) RawLen() int { return len(d.data) }

// SectorSize returns the fixed sector size of this device.
func (d *Device) SectorSize() int { return d.sectorSize }

// TotalSectors returns the fixed sector count of this device.
func (d *Device) TotalSectors() int { return d.totalSectors }

func (d *Device) bounds(i int) error {
	if i < 0 || i >= d.totalSectors {
		return fmt.Errorf("blockdevice: sector %d out of range [0,%d)", i, d.totalSectors)
	}
	return nil
}

// ReadSector copies sector i into out, which must be exactly SectorSize() bytes.
func (d *Device) ReadSector(i int, out []byte) error {
	if err := d.bounds(i); err != nil {
		return err
	}
	if len(out) != d.sectorSize {
		return fmt.Errorf("blockdevice: read buffer is %d bytes, want %d", len(out), d.sectorSize)
	}
	off := i * d.sectorSize
	copy(out, d.data[off:off+d.sectorSize])
	return nil
}

// WriteSector copies buf, which must be exactly SectorSize() bytes, into sector i.
func (d *Device) WriteSector(i int, buf []byte) error {
	if err := d.bounds(i); err != nil {
		return err
	}
	if len(buf) != d.sectorSize {
		return fmt.Errorf("blockdevice: write buffer is %d bytes, want %d", len(buf), d.sectorSize)
	}
	off := i * d.sectorSize
	copy(d.data[off:off+d.sectorSize], buf)
	return nil
}

// Load replaces the in-memory sector array with the contents of path.
// It returns ErrNotExist (wrapped) if path does not exist. The file is
// opened through backend.Storage (read-only) rather than bare os.File, so a
// caller embedding minifs inside a larger disk-image toolchain can later
// substitute a different backend.Storage (e.g. a carved-out image region)
// without touching this package.
func (d *Device) Load(path string) error {
	storage, err := file.OpenFromPath(path, true)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return fmt.Errorf("blockdevice: opening %s: %w", path, err)
	}
	defer storage.Close()

	info, err := storage.Stat()
	if err != nil {
		return fmt.Errorf("blockdevice: stat %s: %w", path, err)
	}

	buf := make([]byte, info.Size())
	if _, err := readFullAt(storage, buf); err != nil {
		return fmt.Errorf("blockdevice: reading %s: %w", path, err)
	}

	unlock, err := tryLock(path)
	if err != nil {
		d.log.WithError(err).Warn("blockdevice: could not acquire advisory lock on image; proceeding without it")
	}
	if unlock != nil {
		defer unlock()
	}

	d.data = buf
	d.log.WithField("path", path).WithField("bytes", len(buf)).Debug("blockdevice: loaded image")
	return nil
}

func readFullAt(r backend.File, buf []byte) (int, error) {
	n, err := r.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return n, err
	}
	if n != len(buf) {
		return n, fmt.Errorf("short read: got %d of %d bytes", n, len(buf))
	}
	return n, nil
}

// Save atomically writes the in-memory sector array to path: the full file
// is written to a temporary sibling and renamed into place, so a reader never
// observes a partially-written image (spec.md §4.1 "atomically write").
func (d *Device) Save(path string) error {
	if err := renameio.WriteFile(path, d.data, 0o644); err != nil {
		return fmt.Errorf("blockdevice: saving %s: %w", path, err)
	}
	d.log.WithField("path", path).WithField("bytes", len(d.data)).Debug("blockdevice: saved image")
	return nil
}
