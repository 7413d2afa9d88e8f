package minifs

import (
	"fmt"
	"strings"

	"github.com/diskfs/minifs/internal/dirent"
	"github.com/diskfs/minifs/internal/inode"
)

// walk resolves an absolute path (spec.md §4.4): parent is -1 only on a
// hard error; parent=0,child=0 for "/"; parent=validInode,child=-1 when the
// final component is missing but every intermediate directory exists;
// parent=validInode,child=validInode when the target exists.
func (fs *FileSystem) walk(path string) (parent int32, child int32, lastName string, err error) {
	if !strings.HasPrefix(path, "/") {
		return -1, -1, "", fmt.Errorf("minifs: path %q is not absolute", path)
	}

	segments := splitPath(path)
	if len(segments) == 0 {
		return 0, 0, "", nil
	}

	cur := int32(0)
	for idx, seg := range segments {
		if !dirent.IsLegalName(seg) {
			return -1, -1, "", fmt.Errorf("minifs: illegal name %q", seg)
		}

		parentCandidate := cur
		_, _, parentInode, err := fs.table.Load(int(cur))
		if err != nil {
			return -1, -1, "", err
		}
		if parentInode.Type != inode.TypeDir {
			return -1, -1, "", fmt.Errorf("minifs: inode %d is not a directory", cur)
		}

		childNo, found, err := fs.findInDir(parentInode, seg)
		if err != nil {
			return -1, -1, "", err
		}

		last := idx == len(segments)-1
		if !found {
			if last {
				return parentCandidate, -1, seg, nil
			}
			return -1, -1, "", fmt.Errorf("minifs: no such directory %q", seg)
		}

		cur = childNo
		if last {
			return parentCandidate, cur, seg, nil
		}
	}

	// unreachable: len(segments) > 0 guarantees the loop returns
	return -1, -1, "", fmt.Errorf("minifs: internal error resolving %q", path)
}

// splitPath splits an absolute path into its non-empty components.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
