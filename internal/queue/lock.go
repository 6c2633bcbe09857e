package queue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrLockHeld means another live consumer owns the lock.
var ErrLockHeld = errors.New("consumer lock held by another process")

// Lock is the advisory lock that guarantees at most one active consumer
// system-wide. The lock file holds the owner's pid; a lock whose owner
// is dead is stale and may be broken.
type Lock struct {
	path string
	pid  int
}

// AcquireLock takes the consumer lock, breaking a stale one if needed.
// Returns ErrLockHeld when a live process owns it; simultaneous start
// attempts converge through the O_EXCL create.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	// Two tries: one before and one after breaking a stale lock.
	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			pid := os.Getpid()
			if _, werr := fmt.Fprintf(file, "%d\n", pid); werr != nil {
				file.Close()
				_ = os.Remove(path)
				return nil, werr
			}
			if cerr := file.Close(); cerr != nil {
				return nil, cerr
			}
			return &Lock{path: path, pid: pid}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}

		pid, ok := LockHolder(path)
		if ok && pidAlive(pid) {
			return nil, fmt.Errorf("%w (pid %d)", ErrLockHeld, pid)
		}

		// Stale or unreadable lock; remove and retry once.
		if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			return nil, rerr
		}
	}

	return nil, ErrLockHeld
}

// Release drops the lock. Only the owner's file is removed; if the file
// was replaced by a newer holder it is left alone.
func (l *Lock) Release() error {
	pid, ok := LockHolder(l.path)
	if ok && pid != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// LockHolder reads the pid recorded in the lock file.
func LockHolder(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// ConsumerAlive reports whether a live consumer currently holds the lock.
func ConsumerAlive(path string) bool {
	pid, ok := LockHolder(path)
	return ok && pidAlive(pid)
}

// pidAlive probes a process with the null signal.
func pidAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return errors.Is(err, syscall.EPERM)
}
