//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package blockdevice

import (
	"os"

	"golang.org/x/sys/unix"
)

// tryLock takes a non-blocking advisory flock on path, purely cooperative:
// minifs's contract is a single caller (spec.md §5), this just warns loudly
// if some other process is already holding the image open for writing. It is
// never treated as a hard failure.
func tryLock(path string) (unlock func(), err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}
