package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("file not found")

// Entry is one stored file as the backend sees it right now. Backends keep no
// index: List re-reads the underlying storage on every call, so the catalog is
// always a live view.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

type Backend interface {
	// EnsureReady creates the directory or bucket if it does not exist.
	// Called once at startup and safe to repeat.
	EnsureReady(ctx context.Context) error
	// Ping verifies the storage is reachable without mutating it. Health
	// checks use this so a poller can never create buckets or directories.
	Ping(ctx context.Context) error
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, Entry, error)
	List(ctx context.Context) ([]Entry, error)
}
