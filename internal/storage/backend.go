// Package storage provides the key/value backends the keyring persists through.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Backend stores opaque records under string keys. Implementations must be
// safe for concurrent use.
type Backend interface {
	// Get returns the values of the keys that exist. Missing keys are
	// absent from the result rather than an error.
	Get(ctx context.Context, keys []string) (map[string][]byte, error)
	// Set writes all items atomically: either every item is stored or none is.
	Set(ctx context.Context, items map[string][]byte) error
	// Remove deletes the keys. Removing a missing key is not an error.
	Remove(ctx context.Context, keys []string) error
	Close() error
}

// Scanner is implemented by backends that can iterate a key prefix.
type Scanner interface {
	// ForEach calls fn for every key with the given prefix. The callback
	// receives copies. Return a non-nil error from fn to stop early.
	ForEach(ctx context.Context, prefix string, fn func(key string, value []byte) error) error
}

// IOError wraps a backend failure with the operation and keys involved.
type IOError struct {
	Op   string
	Keys []string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("storage %s [%s]: %v", e.Op, strings.Join(e.Keys, ","), e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func ioError(op string, keys []string, err error) error {
	return &IOError{Op: op, Keys: keys, Err: err}
}

func itemKeys(items map[string][]byte) []string {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}

// Open returns a backend by name: "memory", "badger" (directory at path)
// or "file" (keyring.json inside path).
func Open(kind, path string) (Backend, error) {
	switch kind {
	case "memory":
		return NewMemory(), nil
	case "badger", "":
		return NewBadger(path)
	case "file":
		return NewFile(filepath.Join(path, "keyring.json"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
