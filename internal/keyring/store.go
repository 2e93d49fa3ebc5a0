package keyring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Klingon-tech/klingnet-keyring/internal/log"
	"github.com/Klingon-tech/klingnet-keyring/internal/storage"
)

// Storage keys.
const (
	indexKey     = "wallets"
	walletPrefix = "wallet/"
)

var ErrUnsupportedRecord = errors.New("unsupported wallet record version")

func walletKey(id string) string {
	return walletPrefix + id
}

// Store is the in-memory arena of wallets backed by a storage.Backend.
// Reads return deep copies; writes go to the backend first and replace the
// cached wallet only after the backend accepted them.
type Store struct {
	mu      sync.RWMutex
	db      storage.Backend
	wallets map[string]*Wallet
	order   []string // creation order, mirrors the persisted index
}

// NewStore loads every wallet listed in the backend's index. When the index
// is missing and the backend can scan, the index is rebuilt from records.
func NewStore(ctx context.Context, db storage.Backend) (*Store, error) {
	s := &Store{
		db:      db,
		wallets: make(map[string]*Wallet),
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	got, err := s.db.Get(ctx, []string{indexKey})
	if err != nil {
		return fmt.Errorf("load wallet index: %w", err)
	}

	raw, ok := got[indexKey]
	if !ok {
		return s.rebuild(ctx)
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("decode wallet index: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = walletKey(id)
	}
	records, err := s.db.Get(ctx, keys)
	if err != nil {
		return fmt.Errorf("load wallets: %w", err)
	}

	for _, id := range ids {
		rec, ok := records[walletKey(id)]
		if !ok {
			log.Storage.Warn().Str("wallet_id", id).Msg("Indexed wallet record missing, skipping")
			continue
		}
		if err := s.addOrSkip(id, rec); err != nil {
			return err
		}
	}
	return nil
}

// rebuild scans wallet records when no index exists.
func (s *Store) rebuild(ctx context.Context) error {
	scanner, ok := s.db.(storage.Scanner)
	if !ok {
		return nil
	}
	err := scanner.ForEach(ctx, walletPrefix, func(key string, value []byte) error {
		return s.addOrSkip(strings.TrimPrefix(key, walletPrefix), value)
	})
	if err != nil {
		return fmt.Errorf("scan wallets: %w", err)
	}
	if len(s.order) > 0 {
		log.Storage.Info().Int("wallets", len(s.order)).Msg("Rebuilt wallet index")
	}
	return nil
}

// addOrSkip adds a record, logging and skipping it if it cannot be decoded.
// Records written by a newer version still fail the load.
func (s *Store) addOrSkip(id string, rec []byte) error {
	err := s.addRecord(id, rec)
	if err == nil || errors.Is(err, ErrUnsupportedRecord) {
		return err
	}
	log.Storage.Warn().Str("wallet_id", id).Err(err).Msg("Undecodable wallet record, skipping")
	return nil
}

func (s *Store) addRecord(id string, rec []byte) error {
	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(rec, &header); err != nil {
		return fmt.Errorf("decode wallet %s: %w", id, err)
	}
	if header.Version > recordVersion {
		return fmt.Errorf("%w: wallet %s has version %d", ErrUnsupportedRecord, id, header.Version)
	}

	var w Wallet
	if err := json.Unmarshal(rec, &w); err != nil {
		return fmt.Errorf("decode wallet %s: %w", id, err)
	}
	if w.ID != id {
		return fmt.Errorf("decode wallet %s: record id %q does not match key", id, w.ID)
	}
	if _, dup := s.wallets[id]; !dup {
		s.order = append(s.order, id)
	}
	s.wallets[id] = &w
	return nil
}

// Get returns a copy of the wallet with the given id.
func (s *Store) Get(id string) (*Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, id)
	}
	return w.Clone(), nil
}

// List returns copies of all wallets in creation order.
func (s *Store) List() []*Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Wallet, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.wallets[id].Clone())
	}
	return out
}

// Len returns the number of wallets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Put persists the wallet record, and the index when the wallet is new,
// in a single backend write.
func (s *Store) Put(ctx context.Context, w *Wallet) error {
	if w == nil || w.ID == "" {
		return fmt.Errorf("put wallet: missing id")
	}
	w.Version = recordVersion

	rec, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode wallet %s: %w", w.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := map[string][]byte{walletKey(w.ID): rec}
	order := s.order
	if _, exists := s.wallets[w.ID]; !exists {
		order = append(append([]string(nil), s.order...), w.ID)
		idx, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("encode wallet index: %w", err)
		}
		items[indexKey] = idx
	}

	if err := s.db.Set(ctx, items); err != nil {
		return fmt.Errorf("persist wallet %s: %w", w.ID, err)
	}

	s.order = order
	s.wallets[w.ID] = w.Clone()
	return nil
}

// Delete removes the wallet. The index is rewritten before the record is
// removed, so an interrupted delete leaves at most an unreferenced record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[id]; !ok {
		return fmt.Errorf("%w: %s", ErrWalletNotFound, id)
	}

	order := make([]string, 0, len(s.order))
	for _, existing := range s.order {
		if existing != id {
			order = append(order, existing)
		}
	}
	idx, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode wallet index: %w", err)
	}

	if err := s.db.Set(ctx, map[string][]byte{indexKey: idx}); err != nil {
		return fmt.Errorf("update wallet index: %w", err)
	}
	s.order = order
	delete(s.wallets, id)

	if err := s.db.Remove(ctx, []string{walletKey(id)}); err != nil {
		return fmt.Errorf("remove wallet %s: %w", id, err)
	}
	return nil
}
