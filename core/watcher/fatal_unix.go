//go:build !windows

package watcher

import (
	"errors"
	"syscall"
)

// isFatalFsnotifyError reports resource exhaustion that leaves the watcher unusable:
// inotify watch limit (ENOSPC) or descriptor limits (EMFILE, ENFILE).
func isFatalFsnotifyError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
