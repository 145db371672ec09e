package mail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lockRetryInterval = 50 * time.Millisecond
	lockStaleAfter    = 30 * time.Second
)

// fileLock is a cross-process mutex built on exclusive file creation. A lock
// file older than lockStaleAfter is treated as abandoned by a crashed process
// and taken over.
type fileLock struct {
	path  string
	stale time.Duration
	now   func() time.Time
}

func newFileLock(path string) *fileLock {
	return &fileLock{
		path:  path,
		stale: lockStaleAfter,
		now:   time.Now,
	}
}

// Acquire blocks until the lock is held or the context is done. The returned
// function releases the lock.
func (l *fileLock) Acquire(ctx context.Context) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, err
	}

	for {
		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(file, "%d %s\n", os.Getpid(), l.now().UTC().Format(time.RFC3339))
			_ = file.Close()
			return func() { _ = os.Remove(l.path) }, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}

		if info, statErr := os.Stat(l.path); statErr == nil {
			if l.now().Sub(info.ModTime()) > l.stale {
				_ = os.Remove(l.path)
				continue
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}
