//go:build unix

package sys

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// tryLock takes a non-blocking flock on lockPath.
func tryLock(lockPath string) (func() error, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLockHeld
		}
		return nil, err
	}
	// A previous holder may have unlinked the file between our open and
	// flock; the lock is only valid on the file the path still names.
	if !sameFile(f, lockPath) {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		return nil, ErrLockHeld
	}
	return func() error {
		rmErr := os.Remove(lockPath)
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		closeErr := f.Close()
		if rmErr != nil && !os.IsNotExist(rmErr) {
			return rmErr
		}
		return closeErr
	}, nil
}

func sameFile(f *os.File, path string) bool {
	var held, named unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &held); err != nil {
		return false
	}
	if err := unix.Stat(path, &named); err != nil {
		return false
	}
	return held.Dev == named.Dev && held.Ino == named.Ino
}
