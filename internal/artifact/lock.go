package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ErrLocked means another pipeline run holds the artifact directory.
// Retryable: callers surface "try again", they do not crash. Two simultaneous
// runs against the same artifacts are undefined behavior to avoid, not a case
// to make safe.
var ErrLocked = eris.New("artifact: directory locked by another run")

const lockName = "run.lock"

// Lock is an advisory lock file over an artifact directory.
type Lock struct {
	path string
}

// Acquire takes the advisory lock, failing with ErrLocked when it is held.
func (d *Dir) Acquire() (*Lock, error) {
	path := filepath.Join(d.Root, lockName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		return nil, eris.Wrapf(ErrLocked, "%s", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: create lock %s", path)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid()) //nolint:errcheck
	if err := f.Close(); err != nil {
		os.Remove(path) //nolint:errcheck
		return nil, eris.Wrapf(err, "artifact: close lock %s", path)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file. Releasing twice is harmless.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !os.IsNotExist(err) {
		return eris.Wrap(err, "artifact: remove lock")
	}
	return nil
}
