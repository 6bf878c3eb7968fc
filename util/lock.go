package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// Flock is an advisory lock on a file. It guards commands that write the
// package database against running concurrently.
type Flock struct {
	path string
	m    sync.Mutex
	fh   *os.File
}

// NewFlock returns an unlocked Flock for path.
func NewFlock(path string) *Flock {
	return &Flock{path: path}
}

// Path returns the lock file path.
func (f *Flock) Path() string {
	return f.path
}

// Locked reports whether this Flock holds the lock.
func (f *Flock) Locked() bool {
	f.m.Lock()
	defer f.m.Unlock()
	return f.fh != nil
}

// TryLock takes the lock without blocking. It returns ErrLocked when
// another process holds it. The holder's pid is written to the file.
func (f *Flock) TryLock() error {
	f.m.Lock()
	defer f.m.Unlock()

	if f.fh != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(fh.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		fh.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return fmt.Errorf("%s: %w", f.path, ErrLocked)
		}
		return fmt.Errorf("failed to lock %s: %w", f.path, err)
	}

	if err := fh.Truncate(0); err == nil {
		fh.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	f.fh = fh
	return nil
}

// Unlock releases the lock. The file is left in place.
func (f *Flock) Unlock() error {
	f.m.Lock()
	defer f.m.Unlock()

	if f.fh == nil {
		return nil
	}
	err := unix.Flock(int(f.fh.Fd()), unix.LOCK_UN)
	if cerr := f.fh.Close(); err == nil {
		err = cerr
	}
	f.fh = nil
	return err
}
