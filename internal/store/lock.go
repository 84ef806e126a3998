package store

import (
	"os"
	"time"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
)

// advisoryLock is a sidecar-file exclusion lock over the workspace root
// tree, held for the duration of a single Store operation (spec §5:
// "writes serialized via an OS-level lock file (advisory exclusion)
// over the component directory tree per operation").
type advisoryLock struct {
	path string
}

const lockRetryInterval = 10 * time.Millisecond
const lockTimeout = 5 * time.Second

// acquire blocks (up to lockTimeout) until it can create the lock file
// exclusively, then returns a releaser. It never partially mutates any
// component file; it only gates which goroutine/process may do so.
func (l *layout) acquire() (func(), error) {
	path := l.lockFile()
	deadline := time.Now().Add(lockTimeout)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, ctxerr.Wrap(ctxerr.IO, err, "acquiring workspace lock")
		}
		if time.Now().After(deadline) {
			return nil, ctxerr.New(ctxerr.IO, "timed out waiting for workspace lock").
				WithHint("another claude-ctx operation may be in progress")
		}
		time.Sleep(lockRetryInterval)
	}
}
