package minifs

import "github.com/diskfs/minifs/internal/layout"

// Params are the build-fixed constants of spec.md §3: SECTOR_SIZE,
// TOTAL_SECTORS, MAX_FILES, and MAX_SECTORS_PER_FILE. The teacher's ext4
// package exposes an equivalent Params struct for the same reason: tests
// want a small image, production wants a real one, and the values are
// otherwise identical between the two.
type Params = layout.Params

// DefaultParams is used by Boot when no Params is supplied.
var DefaultParams = layout.DefaultParams

// MaxOpenFiles is the fixed capacity of the open-file table (spec.md §4.7).
// Unlike SectorSize/TotalSectors/MaxFiles/MaxSectorsPerFile this is not part
// of the on-disk layout, so it is a package constant rather than a Params field.
const MaxOpenFiles = 256

// DirentSize is sizeof(dirent): the on-disk record size callers must use to
// size the buffer and n argument of DirRead (spec.md §8 property 7, §2 S2).
const DirentSize = layout.DirentSize
