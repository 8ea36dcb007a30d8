package store

import (
	"context"
	"strings"
	"time"
)

const (
	conflictRetries    = 3
	conflictRetryDelay = 50 * time.Millisecond
)

// isSQLiteConflict reports whether err is a SQLite concurrency error
// (SQLITE_BUSY or "database is locked"). These are transient under WAL and
// warrant a short retry.
func isSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// withConflictRetry runs fn, retrying a few times when it fails with a
// SQLite concurrency error.
func withConflictRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		err = fn()
		if !isSQLiteConflict(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(conflictRetryDelay):
		}
	}
	return err
}
