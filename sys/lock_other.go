//go:build !unix

package sys

import (
	"os"
)

// tryLock falls back to an O_EXCL lock file where flock is unavailable.
func tryLock(lockPath string) (func() error, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLockHeld
		}
		return nil, err
	}
	f.Close()
	return func() error {
		err := os.Remove(lockPath)
		if err != nil && os.IsNotExist(err) {
			return nil
		}
		return err
	}, nil
}
