// Package lockfile serializes deploys that share an output checkout.
// The lock is a pid file created with O_EXCL. Locks left behind by a
// crashed process are detected and taken over.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const (
	// lockName is used inside the checkout's .git directory, where a
	// commit can never capture it.
	lockName = "sitepush.lock"
	// fallbackName is used when the directory has no .git directory.
	fallbackName = ".sitepush.lock"
)

// HeldError reports a lock held by a live process.
type HeldError struct {
	Path string
	PID  int
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("deploy already in progress (pid %d, lock %s)", e.PID, e.Path)
}

// Lock is a held deploy lock.
type Lock struct {
	path string
	pid  int
}

// Info describes an existing lock file.
type Info struct {
	Path  string
	PID   int
	Stale bool
}

// Path returns the location candidate for a lock in dir.
func Path(dir string) string {
	gitDir := filepath.Join(dir, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		return filepath.Join(gitDir, lockName)
	}
	return filepath.Join(dir, fallbackName)
}

// Acquire takes the deploy lock for dir. A stale lock from a dead
// process is removed and retried once.
func Acquire(dir string) (*Lock, error) {
	path := Path(dir)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			pid := os.Getpid()
			if _, werr := fmt.Fprintf(f, "%d\n", pid); werr != nil {
				f.Close()
				_ = os.Remove(path)
				return nil, fmt.Errorf("failed to write lock file %s: %w", path, werr)
			}
			if cerr := f.Close(); cerr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("failed to write lock file %s: %w", path, cerr)
			}
			return &Lock{path: path, pid: pid}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lock file %s: %w", path, err)
		}

		pid, stale := examine(path)
		if !stale {
			return nil, &HeldError{Path: path, PID: pid}
		}
		if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lock file %s: %w", path, rerr)
		}
	}

	return nil, fmt.Errorf("failed to acquire lock %s after stale takeover", path)
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock file. Releasing twice is harmless.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file %s: %w", l.path, err)
	}
	l.path = ""
	return nil
}

// Inspect reports on the lock for dir. It returns nil when no lock
// file is present.
func Inspect(dir string) (*Info, error) {
	path := Path(dir)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat lock file %s: %w", path, err)
	}
	pid, stale := examine(path)
	return &Info{Path: path, PID: pid, Stale: stale}, nil
}

// examine reads the pid out of an existing lock file and reports
// whether the lock is stale. Unreadable or garbled files count as
// stale.
func examine(path string) (pid int, stale bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, true
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, true
	}
	return pid, !processAlive(pid)
}

// processAlive reports whether a process with the given pid exists.
// Signal errors other than ESRCH are treated as alive, which keeps
// takeover conservative.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrProcessDone) {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ESRCH {
		return false
	}
	return true
}
