// Package minifs implements a small educational file system that stores a
// hierarchical tree of files and directories inside a single fixed-size
// image file acting as a simulated block device: a POSIX-flavored API for
// mount/sync, file create/open/read/write/seek/close/unlink, and directory
// create/read/size/unlink.
//
// The five-region disk layout, the inode and sector bitmap allocators, the
// inode table, the directory layer, and the file engine are internal
// (package internal/...); FileSystem is the single entry point that wires
// them together behind the operations in §4.9 of the specification this
// module implements.
package minifs

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/diskfs/minifs/internal/bitmap"
	"github.com/diskfs/minifs/internal/blockdevice"
	"github.com/diskfs/minifs/internal/inode"
	"github.com/diskfs/minifs/internal/layout"
)

// FileSystem is a handle to a booted minifs image: the block device, both
// bitmap allocators, the inode table, the open-file table, the policy
// hooks, and the process-wide error slot spec.md §9 recommends grouping
// into a single value instead of hidden package-level singletons.
type FileSystem struct {
	dev    *blockdevice.Device
	layout *layout.Layout

	inodeBitmap  *bitmap.Allocator
	sectorBitmap *bitmap.Allocator
	table        *inode.Table
	openFiles    *openFileTable

	imagePath string

	overwritePolicy OverwritePolicy
	tailPolicy      TailPolicy

	lastErr *FSError
	log     logrus.FieldLogger
}

// BootOption configures optional, non-default behavior of Boot.
type BootOption func(*FileSystem)

// WithOverwritePolicy overrides the default (always-append) overwrite policy.
func WithOverwritePolicy(p OverwritePolicy) BootOption {
	return func(fs *FileSystem) { fs.overwritePolicy = p }
}

// WithTailPolicy overrides the default (always-clip) tail policy.
func WithTailPolicy(p TailPolicy) BootOption {
	return func(fs *FileSystem) { fs.tailPolicy = p }
}

// WithLogger overrides the default logrus logger Boot uses for its own
// events (the notice that a fresh image is being formatted). The block
// device is created before options apply, so its load, save and
// lock-contention lines keep the default logger.
func WithLogger(log logrus.FieldLogger) BootOption {
	return func(fs *FileSystem) { fs.log = log }
}

// Boot mounts the image at path: if it does not exist, a fresh image is
// formatted (superblock written, both bitmaps initialized reserving their
// metadata regions, the root inode sector initialized) and saved; if it
// exists, its size and superblock magic are verified. A nil Params uses
// DefaultParams.
func Boot(path string, p *Params, opts ...BootOption) (*FileSystem, error) {
	params := DefaultParams
	if p != nil {
		params = *p
	}
	l, err := layout.New(params)
	if err != nil {
		return nil, fsErr(ErrGeneral, err)
	}

	log := logrus.WithField("run_id", uuid.New().String()).WithField("image", path)

	dev, err := blockdevice.New(l.SectorSize, l.TotalSectors, log)
	if err != nil {
		return nil, fsErr(ErrGeneral, err)
	}

	fs := &FileSystem{
		dev:             dev,
		layout:          l,
		inodeBitmap:     bitmap.New(dev, l.InodeBitmapStart, l.InodeBitmapSectors, l.MaxFiles, 0),
		sectorBitmap:    bitmap.New(dev, l.SectorBitmapStart, l.SectorBitmapSectors, l.TotalSectors, l.DataBlockStart),
		table:           inode.NewTable(dev, l),
		openFiles:       newOpenFileTable(MaxOpenFiles),
		imagePath:       path,
		overwritePolicy: DefaultOverwritePolicy,
		tailPolicy:      DefaultTailPolicy,
		log:             log,
	}
	for _, opt := range opts {
		opt(fs)
	}

	loadErr := dev.Load(path)
	switch {
	case errors.Is(loadErr, blockdevice.ErrNotExist):
		fs.log.Info("minifs: image does not exist, formatting fresh")
		if err := fs.format(); err != nil {
			return nil, fs.setErr(ErrGeneral, err)
		}
		if err := dev.Save(path); err != nil {
			return nil, fs.setErr(ErrGeneral, err)
		}
	case loadErr != nil:
		return nil, fs.setErr(ErrGeneral, loadErr)
	default:
		if err := fs.verifyLoadedImage(); err != nil {
			return nil, fs.setErr(ErrGeneral, err)
		}
	}

	return fs, nil
}

func (fs *FileSystem) verifyLoadedImage() error {
	want := fs.layout.SectorSize * fs.layout.TotalSectors
	if got := fs.dev.RawLen(); got != want {
		return fmt.Errorf("image size %d does not match expected %d bytes", got, want)
	}
	sb := make([]byte, fs.layout.SectorSize)
	if err := fs.dev.ReadSector(0, sb); err != nil {
		return err
	}
	if !layout.CheckSuperblock(sb) {
		return fmt.Errorf("superblock magic mismatch")
	}
	return nil
}

// format lays down a brand-new image: superblock, both bitmaps (reserving
// their metadata regions), and an empty root directory inode.
func (fs *FileSystem) format() error {
	if err := fs.dev.WriteSector(0, fs.layout.EncodeSuperblock()); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	if err := fs.inodeBitmap.Init(1); err != nil { // reserve inode 0 (root)
		return fmt.Errorf("initializing inode bitmap: %w", err)
	}
	if err := fs.sectorBitmap.Init(fs.layout.DataBlockStart); err != nil { // reserve metadata sectors
		return fmt.Errorf("initializing sector bitmap: %w", err)
	}
	root := inode.New(inode.TypeDir, fs.layout.MaxSectorsPerFile)
	if err := fs.table.Put(0, root); err != nil {
		return fmt.Errorf("initializing root inode: %w", err)
	}
	return nil
}

// Sync persists the in-memory sector array to the backing image file. It is
// the only durability primitive in the system (spec.md §5); between syncs,
// durability is not guaranteed.
func (fs *FileSystem) Sync() error {
	if err := fs.dev.Save(fs.imagePath); err != nil {
		return fs.setErr(ErrGeneral, err)
	}
	fs.lastErr = nil
	return nil
}

// LastError returns the most recent error recorded in the process-wide
// error slot (spec.md §6, §7), mirroring the single-slot design of the
// original implementation for callers that want it instead of (or in
// addition to) the error return of the call that set it.
func (fs *FileSystem) LastError() *FSError {
	return fs.lastErr
}

func (fs *FileSystem) setErr(kind ErrorKind, cause error) *FSError {
	e := fsErr(kind, cause)
	fs.lastErr = e
	return e
}
