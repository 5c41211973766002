package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend stores uploads as plain files in a single directory. Names are
// generator-unique so writes never collide and files are never rewritten.
type LocalBackend struct {
	root string
}

func NewLocalBackend(root string) *LocalBackend {
	return &LocalBackend{root: root}
}

func (b *LocalBackend) EnsureReady(_ context.Context) error {
	if err := os.MkdirAll(b.root, 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	return nil
}

func (b *LocalBackend) Ping(_ context.Context) error {
	info, err := os.Stat(b.root)
	if err != nil {
		return fmt.Errorf("stat storage directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %s is not a directory", b.root)
	}
	return nil
}

// validName rejects anything that could escape the storage directory. Stored
// names are flat, so a bare base name is the only legal form.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func (b *LocalBackend) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (int64, error) {
	if !validName(name) {
		return 0, fmt.Errorf("invalid file name %q", name)
	}

	file, err := os.Create(filepath.Join(b.root, name))
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(file, r)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write file: %w", err)
	}
	return written, nil
}

func (b *LocalBackend) Open(_ context.Context, name string) (io.ReadCloser, Entry, error) {
	if !validName(name) {
		return nil, Entry{}, ErrNotFound
	}

	path := filepath.Join(b.root, name)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Entry{}, ErrNotFound
		}
		return nil, Entry{}, fmt.Errorf("open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, Entry{}, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, Entry{}, ErrNotFound
	}

	return file, Entry{Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (b *LocalBackend) List(_ context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("read storage directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Raced with an external deletion; the catalog is a live view,
			// so just skip the vanished file.
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", de.Name(), err)
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}
