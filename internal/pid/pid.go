// Package pid guards against two measd processes sharing one host setup.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/measd/internal/errors"
)

const (
	defaultDirPerm = 0o755
)

// Write writes the current process ID to path. It fails with
// ErrAlreadyRunning when path names a live process; stale files are replaced.
func Write(path string) error {
	errFactory := errors.New()

	if _, err := os.Stat(path); err == nil {
		// PID file exists, check if the process is running
		running, err := alive(path)
		if err != nil {
			return err
		}
		if running {
			return errFactory.WithData(errors.ErrAlreadyRunning, path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file. A missing file is not an error.
func Remove(path string) error {
	errFactory := errors.New()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func alive(path string) (bool, error) {
	errFactory := errors.New()

	bytes, err := os.ReadFile(path)
	if err != nil {
		return false, errFactory.Wrap(errors.ErrInternal, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
	if err != nil {
		// Unreadable contents are treated like a stale file.
		return false, nil
	}
	if pid <= 0 {
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}

	return process.Signal(syscall.Signal(0)) == nil, nil
}
