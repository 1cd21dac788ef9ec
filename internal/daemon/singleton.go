// Package daemon keeps long-running expconf processes from stepping on each
// other.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Singleton ensures only one process holds a named role at a time, using a
// file lock that the operating system releases if the holder dies.
type Singleton struct {
	name string
	lock *flock.Flock
}

// DefaultLockDir is ~/.expconf.
func DefaultLockDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".expconf"), nil
}

// NewSingleton creates a singleton for name whose lock lives in lockDir.
func NewSingleton(name, lockDir string) *Singleton {
	return &Singleton{
		name: name,
		lock: flock.New(filepath.Join(lockDir, name+".lock")),
	}
}

// LockPath is the file backing the lock.
func (s *Singleton) LockPath() string {
	return s.lock.Path()
}

// Acquire attempts to become the singleton instance.
// Returns (true, nil) if this process won and should continue.
// Returns (false, nil) if another instance holds the role.
// Returns (false, err) on actual errors.
func (s *Singleton) Acquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(s.lock.Path()), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", s.name, err)
	}
	return locked, nil
}

// Release releases the file lock (called on shutdown).
func (s *Singleton) Release() error {
	return s.lock.Unlock()
}
