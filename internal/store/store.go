// Package store persists session documents under string keys.
//
// Two backends are provided: FileKV keeps one JSON file per key in a
// directory, SQLiteKV keeps them in a single kv table. Both are safe for use
// by several processes pointed at the same home directory.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

// ErrNotFound is returned by Get and Delete when the key has no value.
var ErrNotFound = errors.New("key not found")

// KV is a minimal key/value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateKey rejects keys that cannot be used as file names.
func ValidateKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// Open returns the backend named by backend rooted at path. For the file
// backend path is a directory; for sqlite it is the database file. An empty
// path defaults to <home>/state or <home>/state.db.
func Open(backend, path, home string) (KV, error) {
	switch backend {
	case BackendFile, "":
		if path == "" {
			path = filepath.Join(home, "state")
		}
		return NewFileKV(path)
	case BackendSQLite:
		if path == "" {
			path = filepath.Join(home, "state.db")
		}
		return NewSQLiteKV(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
