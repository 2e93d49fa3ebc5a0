package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrClosed is returned by operations on a closed MemoryDB.
var ErrClosed = errors.New("storage closed")

// MemoryDB implements Backend using an in-memory map.
type MemoryDB struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemory creates a new in-memory database.
func NewMemory() *MemoryDB {
	return &MemoryDB{
		data: make(map[string][]byte),
	}
}

// Get retrieves the values of existing keys.
func (m *MemoryDB) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, ioError("get", keys, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ioError("get", keys, ErrClosed)
	}

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = append([]byte{}, v...)
		}
	}
	return out, nil
}

// Set stores all items under one lock.
func (m *MemoryDB) Set(ctx context.Context, items map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return ioError("set", itemKeys(items), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ioError("set", itemKeys(items), ErrClosed)
	}

	for k, v := range items {
		m.data[k] = append([]byte{}, v...)
	}
	return nil
}

// Remove deletes keys.
func (m *MemoryDB) Remove(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return ioError("remove", keys, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ioError("remove", keys, ErrClosed)
	}

	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// ForEach iterates over all keys with the given prefix.
func (m *MemoryDB) ForEach(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	m.mu.RLock()
	snapshot := make(map[string][]byte)
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			snapshot[k] = append([]byte{}, v...)
		}
	}
	m.mu.RUnlock()

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

// Close closes the database.
func (m *MemoryDB) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
