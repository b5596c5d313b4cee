package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileKV stores each key as <dir>/<key>.json. Writes go through a temp file
// and rename while holding <key>.json.lock, so readers never see a partial
// document and concurrent writers are serialized.
type FileKV struct {
	dir string
}

// NewFileKV creates dir if needed and returns a store rooted there.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", dir, err)
	}
	return &FileKV{dir: dir}, nil
}

// Dir returns the directory holding the documents.
func (s *FileKV) Dir() string {
	return s.dir
}

func (s *FileKV) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads the document for key.
func (s *FileKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put replaces the document for key atomically.
func (s *FileKV) Put(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.path(key)
	unlock, err := lockFile(target)
	if err != nil {
		return err
	}
	defer unlock()

	return atomicWrite(target, value)
}

// Delete removes the document for key.
func (s *FileKV) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.path(key)
	unlock, err := lockFile(target)
	if err != nil {
		return err
	}
	defer unlock()

	err = os.Remove(target)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; FileKV holds no open handles between calls.
func (s *FileKV) Close() error {
	return nil
}

func lockFile(target string) (func(), error) {
	lockPath := target + ".lock"
	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock on %s: %w", lockPath, err)
	}
	return func() { _ = fl.Unlock() }, nil
}

// atomicWrite writes to a temp file in the target directory and renames it
// over the target. On failure the previous document is left untouched.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	committed = true
	return nil
}
