// Package lockfile provides a coarse guard against overlapping lifecycle
// passes. The pipeline's schedule spacing is the real concurrency control;
// this lock only detects the contract being violated.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrLocked is returned when another pass already holds the lock.
var ErrLocked = errors.New("lock already held")

// Lock is a held lock file.
type Lock struct {
	path string
}

// Acquire creates path exclusively and writes the holder's pid. A lock file
// older than stale is assumed left behind by a crashed run and is replaced.
func Acquire(path string, stale time.Duration) (*Lock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("write lock file %s: %w", path, werr)
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file %s: %w", path, err)
		}

		info, serr := os.Stat(path)
		if serr != nil {
			if os.IsNotExist(serr) {
				// Holder released between our attempts; try again.
				continue
			}
			return nil, fmt.Errorf("stat lock file %s: %w", path, serr)
		}
		if stale > 0 && time.Since(info.ModTime()) > stale {
			if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
				return nil, fmt.Errorf("remove stale lock %s: %w", path, rerr)
			}
			continue
		}
		return nil, fmt.Errorf("lock file %s: %w", path, ErrLocked)
	}
	return nil, fmt.Errorf("lock file %s: %w", path, ErrLocked)
}

// Release removes the lock file. Releasing twice is harmless.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file %s: %w", l.path, err)
	}
	return nil
}
