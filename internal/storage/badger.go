package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/Klingon-tech/klingnet-keyring/internal/log"
)

// BadgerDB implements Backend using Badger.
type BadgerDB struct {
	db *badger.DB
}

// NewBadger creates a new Badger database at the given path.
func NewBadger(path string) (*BadgerDB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger's built-in logging.

	db, err := badger.Open(opts)
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "Cannot acquire directory lock") ||
			strings.Contains(errMsg, "resource temporarily unavailable") {
			return nil, fmt.Errorf("database at %s is locked by another process (is another keyring-cli running?): %w", path, err)
		}
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}
	log.Storage.Debug().Str("path", path).Msg("badger opened")
	return &BadgerDB{db: db}, nil
}

// Get retrieves the values of existing keys in one read transaction.
func (b *BadgerDB) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, ioError("get", keys, err)
	}
	out := make(map[string][]byte, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, k := range keys {
			item, err := txn.Get([]byte(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[k] = val
		}
		return nil
	})
	if err != nil {
		return nil, ioError("get", keys, fmt.Errorf("badger get: %w", err))
	}
	return out, nil
}

// Set stores all items in a single update transaction.
func (b *BadgerDB) Set(ctx context.Context, items map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return ioError("set", itemKeys(items), err)
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for k, v := range items {
			if err := txn.Set([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ioError("set", itemKeys(items), fmt.Errorf("badger put: %w", err))
	}
	return nil
}

// Remove deletes keys in a single update transaction.
func (b *BadgerDB) Remove(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return ioError("remove", keys, err)
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ioError("remove", keys, fmt.Errorf("badger delete: %w", err))
	}
	return nil
}

// ForEach iterates over all keys with the given prefix.
func (b *BadgerDB) ForEach(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	p := []byte(prefix)
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return ioError("scan", []string{prefix}, err)
			}
			item := it.Item()
			key := string(item.KeyCopy(nil))
			val, err := item.ValueCopy(nil)
			if err != nil {
				return ioError("scan", []string{key}, err)
			}
			if err := fn(key, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (b *BadgerDB) Close() error {
	return b.db.Close()
}
