package minifs

import (
	"fmt"

	"github.com/diskfs/minifs/internal/inode"
)

// readFile implements File_Read (spec.md §4.6): copy up to len(buf) bytes
// starting at the cursor, advancing it, and return the number of bytes
// actually copied (short of len(buf) once EOF is hit).
func (fs *FileSystem) readFile(rec *openFileRecord, buf []byte) (int, error) {
	_, _, in, err := fs.table.Load(int(rec.inode))
	if err != nil {
		return 0, err
	}

	remaining := int(in.Size) - cursorByteOffset(fs.layout.SectorSize, rec)
	if remaining <= 0 {
		return 0, nil
	}
	want := len(buf)
	if want > remaining {
		want = remaining
	}

	n := 0
	sectorBuf := make([]byte, fs.layout.SectorSize)
	for n < want {
		sector := in.Data[rec.pos]
		if err := fs.dev.ReadSector(int(sector), sectorBuf); err != nil {
			return n, fmt.Errorf("reading file data sector: %w", err)
		}
		chunk := fs.layout.SectorSize - rec.posByte
		if chunk > want-n {
			chunk = want - n
		}
		copy(buf[n:n+chunk], sectorBuf[rec.posByte:rec.posByte+chunk])
		n += chunk
		rec.posByte += chunk
		if rec.posByte == fs.layout.SectorSize {
			rec.posByte = 0
			rec.pos++
		}
	}
	return n, nil
}

// writeFile implements File_Write (spec.md §4.6, §4.8). A file already at
// MaxSectorsPerFile*SectorSize bytes fails FILE_TOO_BIG unconditionally,
// before either policy is consulted, matching original_source/LibFS.c's
// unconditional check ahead of its interactive prompts. Otherwise: consult
// the overwrite policy if the cursor isn't at EOF, consult the tail policy
// if the request doesn't fit in the remaining capacity, allocate data
// sectors as the file grows, and copy buf in starting at the (possibly
// policy-adjusted) cursor.
func (fs *FileSystem) writeFile(rec *openFileRecord, buf []byte) (int, *FSError) {
	sector, sbuf, in, err := fs.table.Load(int(rec.inode))
	if err != nil {
		return 0, fsErr(ErrGeneral, err)
	}

	capacity := fs.layout.MaxSectorsPerFile * fs.layout.SectorSize
	if int(in.Size) == capacity {
		return 0, fsErr(ErrFileTooBig, nil)
	}

	atEOF := cursorByteOffset(fs.layout.SectorSize, rec) == int(in.Size)
	if !atEOF {
		decision := fs.overwritePolicy.OnNonEmpty(rec.view())
		switch decision {
		case OverwriteTruncate:
			if err := fs.truncateFile(rec, in); err != nil {
				return 0, fsErr(ErrGeneral, err)
			}
			sector, sbuf, in, err = fs.table.Load(int(rec.inode))
			if err != nil {
				return 0, fsErr(ErrGeneral, err)
			}
		case OverwriteCancel:
			return 0, nil
		case OverwriteAppend:
			rec.pos, rec.posByte = sectorOffsetOf(fs.layout.SectorSize, int(in.Size))
		}
	}

	available := capacity - cursorByteOffset(fs.layout.SectorSize, rec)
	want := len(buf)
	if want > available {
		decision := fs.tailPolicy.OnInsufficientSpace(rec.view(), want, available)
		if decision == TailCancel {
			return 0, nil
		}
		want = available
	}
	if want == 0 {
		return 0, nil
	}

	n := 0
	sectorBuf := make([]byte, fs.layout.SectorSize)
	for n < want {
		chunk := fs.layout.SectorSize - rec.posByte
		if in.Data[rec.pos] == 0 {
			newSector, err := fs.allocateDataSector()
			if err != nil {
				break
			}
			in.Data[rec.pos] = newSector
			for i := range sectorBuf {
				sectorBuf[i] = 0
			}
		} else if rec.posByte > 0 || chunk > want-n {
			// a partial write into an existing sector (starting past its
			// first byte or ending before its last) must preserve the
			// bytes it isn't overwriting.
			if err := fs.dev.ReadSector(int(in.Data[rec.pos]), sectorBuf); err != nil {
				return n, fsErr(ErrGeneral, err)
			}
		}

		if chunk > want-n {
			chunk = want - n
		}
		copy(sectorBuf[rec.posByte:rec.posByte+chunk], buf[n:n+chunk])
		if err := fs.dev.WriteSector(int(in.Data[rec.pos]), sectorBuf); err != nil {
			return n, fsErr(ErrGeneral, err)
		}

		n += chunk
		rec.posByte += chunk
		if rec.posByte == fs.layout.SectorSize {
			rec.posByte = 0
			rec.pos++
		}

		newOffset := cursorByteOffset(fs.layout.SectorSize, rec)
		if int64(newOffset) > in.Size {
			in.Size = int64(newOffset)
		}
	}

	rec.size = in.Size
	enc, encErr := in.Encode(fs.layout.InodeSize)
	if encErr != nil {
		return n, fsErr(ErrGeneral, encErr)
	}
	_, ioff := fs.layout.InodeLocation(int(rec.inode))
	copy(sbuf[ioff:ioff+fs.layout.InodeSize], enc)
	if err := fs.table.Store(sector, sbuf); err != nil {
		return n, fsErr(ErrGeneral, err)
	}

	if n == 0 && len(buf) > 0 {
		return 0, fsErr(ErrNoSpace, nil)
	}
	return n, nil
}

// truncateFile frees every data sector of in and resets it (and rec's
// cursor) to empty.
func (fs *FileSystem) truncateFile(rec *openFileRecord, in *inode.Inode) error {
	for idx, sec := range in.Data {
		if sec == 0 {
			continue
		}
		if err := fs.zeroSector(sec); err != nil {
			return err
		}
		if err := fs.freeDataSector(sec); err != nil {
			return err
		}
		in.Data[idx] = 0
	}
	in.Size = 0
	sector, sbuf, _, err := fs.table.Load(int(rec.inode))
	if err != nil {
		return err
	}
	enc, err := in.Encode(fs.layout.InodeSize)
	if err != nil {
		return err
	}
	_, ioff := fs.layout.InodeLocation(int(rec.inode))
	copy(sbuf[ioff:ioff+fs.layout.InodeSize], enc)
	if err := fs.table.Store(sector, sbuf); err != nil {
		return err
	}
	rec.pos, rec.posByte = 0, 0
	rec.size = 0
	return nil
}

// seekFile implements File_Seek: move the cursor to an absolute byte offset,
// which must lie within [0, current size); seeking to exactly the size fails.
func (fs *FileSystem) seekFile(rec *openFileRecord, offset int) error {
	if offset < 0 || int64(offset) >= rec.size {
		return fmt.Errorf("seek offset %d out of bounds [0,%d)", offset, rec.size)
	}
	rec.pos, rec.posByte = sectorOffsetOf(fs.layout.SectorSize, offset)
	return nil
}

func cursorByteOffset(sectorSize int, rec *openFileRecord) int {
	return rec.pos*sectorSize + rec.posByte
}

func sectorOffsetOf(sectorSize, byteOffset int) (pos, posByte int) {
	return byteOffset / sectorSize, byteOffset % sectorSize
}

func (rec *openFileRecord) view() *OpenFile {
	return &OpenFile{Inode: rec.inode, Size: rec.size, Pos: rec.pos, PosByte: rec.posByte}
}
