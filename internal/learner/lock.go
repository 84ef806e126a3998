package learner

import (
	"os"
	"time"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
)

// fileLock is a sidecar-file exclusion lock, the same O_CREATE|O_EXCL
// discipline as internal/store/lock.go, scoped here
// to a single jsonl append rather than the component tree (spec §5:
// "history.jsonl: append-only with exclusion lock held for the
// duration of a single append").
type fileLock struct {
	path string
}

const lockRetryInterval = 10 * time.Millisecond
const lockTimeout = 5 * time.Second

func (l fileLock) acquire() (func(), error) {
	deadline := time.Now().Add(lockTimeout)
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() { os.Remove(l.path) }, nil
		}
		if !os.IsExist(err) {
			return nil, ctxerr.Wrap(ctxerr.IO, err, "acquiring history lock")
		}
		if time.Now().After(deadline) {
			return nil, ctxerr.New(ctxerr.IO, "timed out waiting for history lock")
		}
		time.Sleep(lockRetryInterval)
	}
}
