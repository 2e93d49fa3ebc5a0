package keyring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-keyring/internal/storage"
	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

func testWallet(id string) *Wallet {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	path := chain.MustParsePath("m/44'/60'/0'/0/0")
	return &Wallet{
		ID:   id,
		Name: "w-" + id,
		EncryptedMnemonic: &wallet.Ciphertext{
			KDF:   wallet.EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 1},
			Salt:  []byte{1, 2, 3},
			Nonce: []byte{4, 5, 6},
			Data:  []byte{7, 8},
			Tag:   []byte{9},
		},
		Accounts: []Account{{
			ID:             accountID(id, chain.EVM, path),
			Index:          0,
			DerivationPath: path,
			ChainFamily:    chain.EVM,
			Address:        "0x0000000000000000000000000000000000000001",
			CreatedAt:      now,
		}},
		ActiveNetwork: chain.EVM,
		CreatedAt:     now,
		LastAccessed:  now,
	}
}

func TestStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, storage.NewMemory())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	for _, id := range []string{"b", "a", "c"} {
		if err := s.Put(ctx, testWallet(id)); err != nil {
			t.Fatalf("Put(%s) error: %v", id, err)
		}
	}

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("List() = %d wallets, want 3", len(list))
	}
	// Creation order, not lexical order.
	for i, want := range []string{"b", "a", "c"} {
		if list[i].ID != want {
			t.Errorf("List()[%d] = %s, want %s", i, list[i].ID, want)
		}
	}

	w, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if w.Name != "w-a" || w.Version != recordVersion {
		t.Errorf("Get() = %+v", w)
	}

	if _, err := s.Get("zzz"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrWalletNotFound", err)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStore(ctx, storage.NewMemory())
	s.Put(ctx, testWallet("x"))

	w, _ := s.Get("x")
	w.Name = "mutated"
	w.Accounts[0].Address = "mutated"
	w.Accounts[0].DerivationPath[0] = 0
	w.EncryptedMnemonic.Data[0] = 0xFF

	again, _ := s.Get("x")
	if again.Name != "w-x" || again.Accounts[0].Address == "mutated" {
		t.Error("mutating a returned wallet changed the store")
	}
	if again.Accounts[0].DerivationPath.String() != "m/44'/60'/0'/0/0" {
		t.Error("mutating a returned path changed the store")
	}
	if again.EncryptedMnemonic.Data[0] == 0xFF {
		t.Error("mutating returned ciphertext changed the store")
	}
}

func TestStore_Reload(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()
	s1, _ := NewStore(ctx, db)
	s1.Put(ctx, testWallet("one"))
	s1.Put(ctx, testWallet("two"))

	s2, err := NewStore(ctx, db)
	if err != nil {
		t.Fatalf("NewStore() reload error: %v", err)
	}
	if s2.Len() != 2 {
		t.Fatalf("reloaded Len() = %d, want 2", s2.Len())
	}
	w, err := s2.Get("two")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if w.Accounts[0].ChainFamily != chain.EVM || w.EncryptedMnemonic.KDF.Memory != 64 {
		t.Errorf("reloaded wallet = %+v", w)
	}
}

func TestStore_RebuildsMissingIndex(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()
	s1, _ := NewStore(ctx, db)
	s1.Put(ctx, testWallet("one"))
	s1.Put(ctx, testWallet("two"))

	if err := db.Remove(ctx, []string{indexKey}); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	s2, err := NewStore(ctx, db)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if s2.Len() != 2 {
		t.Errorf("rebuilt Len() = %d, want 2", s2.Len())
	}
}

func TestStore_SkipsMissingRecord(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()
	s1, _ := NewStore(ctx, db)
	s1.Put(ctx, testWallet("one"))
	s1.Put(ctx, testWallet("two"))
	db.Remove(ctx, []string{walletKey("one")})

	s2, err := NewStore(ctx, db)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if s2.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s2.Len())
	}
}

func TestStore_RejectsNewerVersion(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()

	w := testWallet("future")
	w.Version = recordVersion + 1
	rec, _ := json.Marshal(w)
	idx, _ := json.Marshal([]string{"future"})
	db.Set(ctx, map[string][]byte{indexKey: idx, walletKey("future"): rec})

	if _, err := NewStore(ctx, db); !errors.Is(err, ErrUnsupportedRecord) {
		t.Errorf("NewStore() error = %v, want ErrUnsupportedRecord", err)
	}
}

func TestStore_SkipsUndecodableRecords(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()

	good, _ := json.Marshal(testWallet("good"))
	mismatched, _ := json.Marshal(testWallet("other"))
	idx, _ := json.Marshal([]string{"garbage", "this", "good"})
	db.Set(ctx, map[string][]byte{
		indexKey:             idx,
		walletKey("garbage"): []byte("{not json"),
		walletKey("this"):    mismatched,
		walletKey("good"):    good,
	})

	s, err := NewStore(ctx, db)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	if _, err := s.Get("good"); err != nil {
		t.Errorf("Get(good) error: %v", err)
	}

	// The same records are skipped when the index is rebuilt by scanning.
	db.Remove(ctx, []string{indexKey})
	s, err = NewStore(ctx, db)
	if err != nil {
		t.Fatalf("NewStore() rebuild error: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("rebuilt Len() = %d, want 1", s.Len())
	}
}

func TestStore_RejectsNewerVersionEvenIfUndecodable(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()

	idx, _ := json.Marshal([]string{"future"})
	rec := []byte(fmt.Sprintf(`{"version": %d, "accounts": "changed shape"}`, recordVersion+1))
	db.Set(ctx, map[string][]byte{indexKey: idx, walletKey("future"): rec})

	if _, err := NewStore(ctx, db); !errors.Is(err, ErrUnsupportedRecord) {
		t.Errorf("NewStore() error = %v, want ErrUnsupportedRecord", err)
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemory()
	s, _ := NewStore(ctx, db)
	s.Put(ctx, testWallet("a"))
	s.Put(ctx, testWallet("b"))

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrWalletNotFound", err)
	}

	got, _ := db.Get(ctx, []string{indexKey})
	var ids []string
	json.Unmarshal(got[indexKey], &ids)
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("index after delete = %v, want [b]", ids)
	}
}

func TestStore_PutRequiresID(t *testing.T) {
	s, _ := NewStore(context.Background(), storage.NewMemory())
	if err := s.Put(context.Background(), &Wallet{}); err == nil {
		t.Error("expected error for wallet without id")
	}
}

func TestStore_BadgerBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	s, _ := NewStore(ctx, db)
	if err := s.Put(ctx, testWallet("persisted")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	db.Close()

	db, err = storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() reopen error: %v", err)
	}
	defer db.Close()
	s, err = NewStore(ctx, db)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if _, err := s.Get("persisted"); err != nil {
		t.Errorf("Get() after reopen error: %v", err)
	}
}

func TestWallet_Helpers(t *testing.T) {
	w := testWallet("h")
	w.Accounts = append(w.Accounts,
		Account{ID: "sol1", Index: 1, ChainFamily: chain.Solana},
		Account{ID: "sol0", Index: 0, ChainFamily: chain.Solana},
		Account{ID: "evm4", Index: 4, ChainFamily: chain.EVM},
	)

	sol := w.AccountsFor(chain.Solana)
	if len(sol) != 2 || sol[0].ID != "sol0" {
		t.Errorf("AccountsFor(SOLANA) = %+v", sol)
	}
	if got := w.nextIndex(chain.EVM); got != 5 {
		t.Errorf("nextIndex(EVM) = %d, want 5", got)
	}
	if got := w.nextIndex(chain.TON); got != 0 {
		t.Errorf("nextIndex(TON) = %d, want 0", got)
	}
	first, _ := w.firstAccount()
	if first.ChainFamily != chain.EVM || first.Index != 0 {
		t.Errorf("firstAccount() = (%s, %d), want (EVM, 0)", first.ChainFamily, first.Index)
	}
}
