package minifs

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/diskfs/minifs/internal/bitmap"
)

// ConsistencyReport summarizes a read-only sweep of both bitmap regions:
// the number of set bits and the runs of free bits in each. The bitmaps are
// not cross-checked against the inode table or the directory tree.
type ConsistencyReport struct {
	InodesUsed     int
	InodeFreeRuns  []bitmap.Run
	SectorsUsed    int
	SectorFreeRuns []bitmap.Run
}

// CheckConsistency reads both bitmap regions concurrently and reports their
// occupancy. It never mutates the image.
func (fs *FileSystem) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	report := &ConsistencyReport{}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := fs.inodeBitmap.PopCount()
		if err != nil {
			return err
		}
		runs, err := fs.inodeBitmap.FreeRuns()
		if err != nil {
			return err
		}
		report.InodesUsed = n
		report.InodeFreeRuns = runs
		return nil
	})
	g.Go(func() error {
		n, err := fs.sectorBitmap.PopCount()
		if err != nil {
			return err
		}
		runs, err := fs.sectorBitmap.FreeRuns()
		if err != nil {
			return err
		}
		report.SectorsUsed = n
		report.SectorFreeRuns = runs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fs.setErr(ErrGeneral, err)
	}

	fs.lastErr = nil
	return report, nil
}

// SuperblockBytes returns a copy of sector 0, for diagnostic tooling that
// wants to hex-dump it.
func (fs *FileSystem) SuperblockBytes() ([]byte, error) {
	buf := make([]byte, fs.layout.SectorSize)
	if err := fs.dev.ReadSector(0, buf); err != nil {
		return nil, fs.setErr(ErrGeneral, err)
	}
	fs.lastErr = nil
	return buf, nil
}

// ExpectedSuperblockBytes returns the canonical freshly-formatted sector 0
// for this image's layout: the magic number at offset 0, spec.md §3's
// "rest of sector is zero-filled" everywhere else. Diagnostic tooling
// compares the on-disk superblock against this template to catch stray
// writes into the reserved tail of sector 0.
func (fs *FileSystem) ExpectedSuperblockBytes() []byte {
	return fs.layout.EncodeSuperblock()
}
