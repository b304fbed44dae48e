// Package store persists clipboard entries and secret digests as wholesale
// JSON documents. A document lives on a Medium (a file or a database row) and
// is rewritten in full on every mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Medium is the durable backing of one JSON document.
type Medium interface {
	// Ensure creates the backing resource with an empty document if it is
	// missing. It is idempotent.
	Ensure(ctx context.Context) error

	// Read returns the stored document, or nil if none exists.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the stored document in a single atomic step.
	Write(ctx context.Context, data []byte) error
}

var emptyDocument = []byte("{}")

// FileMedium stores a document in a file on local disk.
type FileMedium struct {
	path string
}

// NewFileMedium returns a FileMedium for the given path.
func NewFileMedium(path string) *FileMedium {
	return &FileMedium{path: path}
}

// Path returns the file path.
func (m *FileMedium) Path() string {
	return m.path
}

// Ensure creates the parent directory (0700) and an empty document (0600).
func (m *FileMedium) Ensure(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	_, err := os.Stat(m.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", m.path, err)
	}
	return m.Write(ctx, emptyDocument)
}

// Read returns the file contents, or nil if the file does not exist.
func (m *FileMedium) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.path, err)
	}
	return data, nil
}

// Write replaces the file by writing a sibling temp file and renaming it over
// the target, so readers never observe a partial document.
func (m *FileMedium) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		return fmt.Errorf("replace %s: %w", m.path, err)
	}
	return nil
}
