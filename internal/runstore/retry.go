package runstore

import (
	"strings"
	"time"
)

const (
	busyMaxAttempts = 5
	busyBaseDelay   = 50 * time.Millisecond
)

// retryOnBusy runs fn, retrying with backoff while SQLite reports the
// database as busy or locked. WAL mode allows concurrent readers, but a
// second writer still races the busy_timeout.
func retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < busyMaxAttempts; attempt++ {
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		time.Sleep(busyBaseDelay * time.Duration(1<<attempt))
	}
	return err
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
