//go:build !windows

package watcher

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFatalFsnotifyError(t *testing.T) {
	assert.True(t, isFatalFsnotifyError(syscall.ENOSPC))
	assert.True(t, isFatalFsnotifyError(fmt.Errorf("inotify: %w", syscall.EMFILE)))
	assert.True(t, isFatalFsnotifyError(syscall.ENFILE))
	assert.False(t, isFatalFsnotifyError(syscall.EACCES))
	assert.False(t, isFatalFsnotifyError(errors.New("queue overflow")))
}
