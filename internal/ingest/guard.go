package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
)

// guard serializes ingestion runs: callers in this process are turned away by
// the running flag, other processes by an exclusive lock file next to the
// database. The lock file holds the owner's pid; a lock whose owner is gone is
// reclaimed.
type guard struct {
	path    string
	running atomic.Bool
}

func newGuard(dbPath string) *guard {
	return &guard{path: dbPath + ".lock"}
}

// acquire takes the guard and returns the function that releases it.
func (g *guard) acquire() (func(), error) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, ErrIngestInProgress
	}

	err := g.createLock()
	if errors.Is(err, fs.ErrExist) && g.stale() {
		if rmErr := os.Remove(g.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			g.running.Store(false)
			return nil, fmt.Errorf("failed to remove stale lock file: %w", rmErr)
		}
		err = g.createLock()
	}
	if err != nil {
		g.running.Store(false)
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: lock file %s exists", ErrIngestInProgress, g.path)
		}
		return nil, err
	}

	return func() {
		os.Remove(g.path)
		g.running.Store(false)
	}, nil
}

func (g *guard) createLock() error {
	f, err := os.OpenFile(g.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	_, err = f.WriteString(strconv.Itoa(os.Getpid()))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(g.path)
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return nil
}

// stale reports whether the lock file names a process that no longer exists.
// A lock without a readable pid is treated as held, since its owner may still
// be writing it.
func (g *guard) stale() bool {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false
	}
	return !processAlive(pid)
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
