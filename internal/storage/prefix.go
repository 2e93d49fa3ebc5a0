package storage

import (
	"context"
	"errors"
	"strings"
)

// PrefixDB wraps a Backend and prepends a fixed prefix to all keys.
// This isolates several keyrings (or networks) within a single database.
type PrefixDB struct {
	inner  Backend
	prefix string
}

// NewPrefixDB creates a new PrefixDB wrapping inner with the given prefix.
func NewPrefixDB(inner Backend, prefix string) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: prefix}
}

func (p *PrefixDB) prefixed(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = p.prefix + k
	}
	return out
}

// Get retrieves values, returning keys without the prefix.
func (p *PrefixDB) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	raw, err := p.inner.Get(ctx, p.prefixed(keys))
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(raw))
	for k, v := range raw {
		out[strings.TrimPrefix(k, p.prefix)] = v
	}
	return out, nil
}

// Set stores items under the prefix.
func (p *PrefixDB) Set(ctx context.Context, items map[string][]byte) error {
	out := make(map[string][]byte, len(items))
	for k, v := range items {
		out[p.prefix+k] = v
	}
	return p.inner.Set(ctx, out)
}

// Remove deletes keys under the prefix.
func (p *PrefixDB) Remove(ctx context.Context, keys []string) error {
	return p.inner.Remove(ctx, p.prefixed(keys))
}

// ForEach iterates over all keys with the given prefix (within the PrefixDB namespace).
// The callback receives keys with the PrefixDB prefix stripped, so callers see only
// their logical keyspace.
func (p *PrefixDB) ForEach(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	scanner, ok := p.inner.(Scanner)
	if !ok {
		return ioError("scan", []string{p.prefix + prefix}, errors.ErrUnsupported)
	}
	return scanner.ForEach(ctx, p.prefix+prefix, func(key string, value []byte) error {
		return fn(key[len(p.prefix):], value)
	})
}

// DeleteAll removes all keys under this PrefixDB's namespace from the inner DB.
func (p *PrefixDB) DeleteAll(ctx context.Context) error {
	// Collect all keys first to avoid modifying during iteration.
	var keys []string
	err := p.ForEach(ctx, "", func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return p.Remove(ctx, keys)
}

// Close is a no-op; the outer DB manages its own lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}
