package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-keyring/internal/log"
)

const fileVersion = 1

// fileFormat is the on-disk JSON format of a FileDB.
type fileFormat struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Entries   map[string][]byte `json:"entries"`
}

// FileDB implements Backend as a single JSON file. Every write replaces the
// file through a rename, so a crash leaves either the old or the new state.
type FileDB struct {
	mu     sync.RWMutex
	path   string
	data   map[string][]byte
	closed bool
}

// NewFile opens or creates the file database at path. The parent
// directory is created if it doesn't exist.
func NewFile(path string) (*FileDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	f := &FileDB{path: path, data: make(map[string][]byte)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Storage.Debug().Str("path", path).Msg("file store created")
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var ff fileFormat
	if err := json.Unmarshal(raw, &ff); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if ff.Version != fileVersion {
		return nil, fmt.Errorf("unsupported file store version: %d", ff.Version)
	}
	if ff.Entries != nil {
		f.data = ff.Entries
	}
	log.Storage.Debug().Str("path", path).Int("entries", len(f.data)).Msg("file store opened")
	return f, nil
}

// Get retrieves the values of existing keys.
func (f *FileDB) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, ioError("get", keys, err)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ioError("get", keys, ErrClosed)
	}

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := f.data[k]; ok {
			out[k] = append([]byte{}, v...)
		}
	}
	return out, nil
}

// Set writes all items in one file replacement.
func (f *FileDB) Set(ctx context.Context, items map[string][]byte) error {
	return f.update(ctx, "set", itemKeys(items), func(next map[string][]byte) {
		for k, v := range items {
			next[k] = append([]byte{}, v...)
		}
	})
}

// Remove deletes keys.
func (f *FileDB) Remove(ctx context.Context, keys []string) error {
	return f.update(ctx, "remove", keys, func(next map[string][]byte) {
		for _, k := range keys {
			delete(next, k)
		}
	})
}

// update applies fn to a copy of the data, persists the copy and only then
// makes it current.
func (f *FileDB) update(ctx context.Context, op string, keys []string, fn func(map[string][]byte)) error {
	if err := ctx.Err(); err != nil {
		return ioError(op, keys, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ioError(op, keys, ErrClosed)
	}

	next := make(map[string][]byte, len(f.data))
	for k, v := range f.data {
		next[k] = v
	}
	fn(next)

	if err := f.writeFile(next); err != nil {
		return ioError(op, keys, err)
	}
	f.data = next
	return nil
}

func (f *FileDB) writeFile(entries map[string][]byte) error {
	data, err := json.MarshalIndent(fileFormat{
		Version:   fileVersion,
		UpdatedAt: time.Now().UTC(),
		Entries:   entries,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal file store: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write file store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace file store: %w", err)
	}
	return nil
}

// ForEach iterates over all keys with the given prefix.
func (f *FileDB) ForEach(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		return ioError("scan", []string{prefix}, ErrClosed)
	}
	snapshot := make(map[string][]byte)
	for k, v := range f.data {
		if strings.HasPrefix(k, prefix) {
			snapshot[k] = append([]byte{}, v...)
		}
	}
	f.mu.RUnlock()

	for k, v := range snapshot {
		if err := ctx.Err(); err != nil {
			return ioError("scan", []string{prefix}, err)
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database. Data is already on disk.
func (f *FileDB) Close() error {
	f.mu.Lock()
	f.closed = true
	f.data = nil
	f.mu.Unlock()
	return nil
}
