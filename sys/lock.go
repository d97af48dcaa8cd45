package sys

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrLockHeld is returned when a lock file stays held by someone else for
// the whole acquisition timeout.
var ErrLockHeld = errors.New("lock is held")

// DefaultLockPollInterval is how often a contended lock is retried.
const DefaultLockPollInterval = 25 * time.Millisecond

// AcquireFileLock takes an exclusive lock on lockPath, creating the file if
// needed, retrying until timeout elapses (a zero timeout tries once). The
// lock file records the owner's pid and acquisition time for diagnostics.
// The returned release function unlocks and removes the file.
func AcquireFileLock(lockPath string, timeout time.Duration) (func() error, error) {
	deadline := time.Now().Add(timeout)
	for {
		release, err := tryLock(lockPath)
		if err == nil {
			writeLockOwner(lockPath)
			return release, nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return nil, fmt.Errorf("AcquireFileLock %s: %w", lockPath, err)
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("AcquireFileLock %s after %s: %w", lockPath, timeout, err)
		}
		time.Sleep(DefaultLockPollInterval)
	}
}

// writeLockOwner stores pid (uint32) followed by unixnano (uint64).
// Errors are ignored, the content is informational only.
func writeLockOwner(lockPath string) {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(os.Getpid()))
	binary.LittleEndian.PutUint64(buf[4:12], uint64(time.Now().UTC().UnixNano()))
	_ = os.WriteFile(lockPath, buf, 0644)
}

// LockOwner reads the pid and acquisition time recorded in a lock file.
func LockOwner(lockPath string) (int, time.Time, error) {
	b, err := os.ReadFile(lockPath)
	if err != nil {
		return 0, time.Time{}, err
	}
	if len(b) < 12 {
		return 0, time.Time{}, fmt.Errorf("lock file %s has %d bytes, want 12", lockPath, len(b))
	}
	pid := int(binary.LittleEndian.Uint32(b[0:4]))
	ts := int64(binary.LittleEndian.Uint64(b[4:12]))
	return pid, time.Unix(0, ts).UTC(), nil
}
