package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// LockFileName is the writer lock file next to the database.
const LockFileName = "db.lock"

// Lock is an OS-level writer lock holding the owner's process id. Only one
// writer may hold it per database; stale locks left by dead processes are
// reclaimed.
type Lock struct {
	path string
}

// AcquireLock takes the writer lock in dir. A lock owned by a live process
// fails with LockHeldError; a stale lock is removed and retaken.
func AcquireLock(dir string) (*Lock, error) {
	path := filepath.Join(dir, LockFileName)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, &DatabaseError{Op: "create lock file", Err: err}
		}

		pid, readErr := readLockPID(path)
		if readErr == nil && pid > 0 && processAlive(pid) {
			return nil, &LockHeldError{Path: path, PID: pid}
		}

		// Stale or unreadable lock: reclaim it and retry once.
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, &DatabaseError{Op: "remove stale lock", Err: rmErr}
		}
	}

	return nil, &LockHeldError{Path: path}
}

// Release removes the lock file. Releasing an already-released lock is a
// no-op.
func (l *Lock) Release() {
	if l == nil || l.path == "" {
		return
	}
	os.Remove(l.path)
	l.path = ""
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// readLockPID parses the owning PID out of a lock file.
func readLockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// processAlive probes a PID with signal 0.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
