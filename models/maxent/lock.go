package maxent

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// execOnFileLock opens the lockPath file (or creates if it doesn't yet exist), locks it, and executes fn.
// If lockPath is already locked, it polls every 100 to 200 milliseconds (randomly) until it acquires
// the lock or ctx is done.
//
// The lockPath is not removed. It's safe to remove it from fn.
func execOnFileLock(ctx context.Context, lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "waiting for lock %q", lockPath)
		case <-time.After(time.Millisecond * time.Duration(100+rand.IntN(100))):
		}
	}

	// Unlock even if fn panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil && err == nil {
			err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
		}
	}()
	fn()
	return
}
