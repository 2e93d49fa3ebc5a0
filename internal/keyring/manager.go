package keyring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Klingon-tech/klingnet-keyring/internal/log"
	"github.com/Klingon-tech/klingnet-keyring/internal/signer"
	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
	"github.com/Klingon-tech/klingnet-keyring/pkg/address"
	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

// MaxAccountCount bounds the accounts created in a single call.
const MaxAccountCount = 100

var (
	ErrWalletNotFound           = errors.New("wallet not found")
	ErrAccountNotFound          = errors.New("account not found")
	ErrLastAccountRemovalDenied = errors.New("cannot remove the last account of a wallet")
	ErrInvalidAccountCount      = errors.New("invalid account count")
	ErrUnsupportedFamily        = errors.New("unsupported chain family")
	ErrEmptyPassword            = errors.New("password must not be empty")

	// Re-exported so callers can match every keyring failure from one package.
	ErrInvalidMnemonic = wallet.ErrInvalidMnemonic
	ErrInvalidPassword = wallet.ErrInvalidPassword
)

// Options configures a Manager.
type Options struct {
	// Network selects mainnet or testnet version bytes and coin types.
	Network chain.Network
	// Coin selects the BITCOIN_LIKE coin.
	Coin chain.Coin
	// Address holds encoder options. Network and Coin override its fields.
	Address address.Params
	// KDF are the Argon2id parameters for newly encrypted mnemonics.
	KDF wallet.EncryptionParams
	// MnemonicBits is the entropy size of generated mnemonics.
	MnemonicBits int
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns mainnet BTC options with the default KDF.
func DefaultOptions() Options {
	return Options{
		Network:      chain.Mainnet,
		Coin:         chain.CoinBTC,
		KDF:          wallet.DefaultParams(),
		MnemonicBits: wallet.DefaultEntropyBits,
		Now:          time.Now,
	}
}

// Manager is the keyring facade. All wallet mutations for one wallet are
// serialized by a per-wallet lock; different wallets proceed in parallel.
type Manager struct {
	store  *Store
	opts   Options
	params address.Params
	locks  sync.Map // wallet id -> *sync.Mutex
}

// NewManager creates a Manager over store.
func NewManager(store *Store, opts Options) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("nil wallet store")
	}
	if opts.Network == "" {
		opts.Network = chain.Mainnet
	}
	if opts.Coin == "" {
		opts.Coin = chain.CoinBTC
	}
	if opts.MnemonicBits == 0 {
		opts.MnemonicBits = wallet.DefaultEntropyBits
	}
	if _, err := wallet.MnemonicWordCount(opts.MnemonicBits); err != nil {
		return nil, err
	}
	if opts.KDF == (wallet.EncryptionParams{}) {
		opts.KDF = wallet.DefaultParams()
	}
	if err := opts.KDF.Validate(); err != nil {
		return nil, fmt.Errorf("kdf params: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	params := opts.Address
	params.Network = opts.Network
	params.Coin = opts.Coin
	bt, err := address.ParseBitcoinAddressType(string(params.BitcoinType))
	if err != nil {
		return nil, err
	}
	params.BitcoinType = bt

	return &Manager{store: store, opts: opts, params: params}, nil
}

func (m *Manager) lock(walletID string) func() {
	mu, _ := m.locks.LoadOrStore(walletID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

func (m *Manager) now() time.Time {
	return m.opts.Now().UTC()
}

// CreateWallet generates a new mnemonic and creates a wallet with
// accountCount accounts of family at indices 0..accountCount-1.
func (m *Manager) CreateWallet(ctx context.Context, name string, password []byte, family chain.Family, accountCount int) (*Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mnemonic, err := wallet.GenerateMnemonic(m.opts.MnemonicBits)
	if err != nil {
		return nil, err
	}
	phrase := []byte(mnemonic)
	defer zero(phrase)

	return m.newWallet(ctx, name, phrase, password, family, accountCount)
}

// ImportWallet creates a wallet from an existing mnemonic.
func (m *Manager) ImportWallet(ctx context.Context, name, mnemonic string, password []byte, family chain.Family, accountCount int) (*Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !wallet.ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	phrase := []byte(wallet.NormalizeMnemonic(mnemonic))
	defer zero(phrase)

	return m.newWallet(ctx, name, phrase, password, family, accountCount)
}

func (m *Manager) newWallet(ctx context.Context, name string, mnemonic, password []byte, family chain.Family, accountCount int) (*Wallet, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFamily, family)
	}
	if accountCount < 1 || accountCount > MaxAccountCount {
		return nil, fmt.Errorf("%w: %d (want 1-%d)", ErrInvalidAccountCount, accountCount, MaxAccountCount)
	}
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}

	seed, err := wallet.SeedFromMnemonicBytes(mnemonic, "")
	if err != nil {
		return nil, err
	}
	defer zero(seed)

	now := m.now()
	w := &Wallet{
		ID:            uuid.NewString(),
		Name:          m.walletName(name),
		ActiveNetwork: family,
		CreatedAt:     now,
		LastAccessed:  now,
	}

	for i := 0; i < accountCount; i++ {
		acct, err := m.deriveAccount(seed, w.ID, family, uint32(i), now)
		if err != nil {
			return nil, err
		}
		w.Accounts = append(w.Accounts, acct)
	}
	w.ActiveAccountID = w.Accounts[0].ID

	done := log.Benchmark("encrypt mnemonic")
	ct, err := wallet.Encrypt(mnemonic, password, m.opts.KDF)
	done()
	if err != nil {
		return nil, fmt.Errorf("encrypt mnemonic: %w", err)
	}
	w.EncryptedMnemonic = ct

	if err := m.store.Put(ctx, w); err != nil {
		return nil, err
	}

	log.WithWallet(w.ID).Info().
		Str("family", family.String()).
		Int("accounts", accountCount).
		Msg("Wallet created")
	return w.Clone(), nil
}

func (m *Manager) walletName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Wallet %d", m.store.Len()+1)
	}
	return name
}

// deriveAccount derives account index of family and encodes its address.
func (m *Manager) deriveAccount(seed []byte, walletID string, family chain.Family, index uint32, now time.Time) (Account, error) {
	km, path, err := wallet.DeriveAccount(seed, family, m.params.Coin, m.params.Network, index)
	if err != nil {
		return Account{}, err
	}
	defer km.Zero()

	addr, err := address.Encode(family, m.params, km.PublicKey)
	if err != nil {
		log.Keyring.Error().
			Str("family", family.String()).
			Str("path", path.String()).
			Err(err).
			Msg("Address encoding failed")
		return Account{}, err
	}

	return Account{
		ID:             accountID(walletID, family, path),
		Index:          index,
		DerivationPath: path,
		ChainFamily:    family,
		Address:        addr,
		PublicKey:      append([]byte(nil), km.PublicKey...),
		CreatedAt:      now,
	}, nil
}

// unlockSeed decrypts the wallet's mnemonic and returns its seed.
// The caller must zero the seed.
func (m *Manager) unlockSeed(w *Wallet, password []byte) ([]byte, error) {
	mnemonic, err := m.decryptMnemonic(w, password)
	if err != nil {
		return nil, err
	}
	defer zero(mnemonic)
	return wallet.SeedFromMnemonicBytes(mnemonic, "")
}

func (m *Manager) decryptMnemonic(w *Wallet, password []byte) ([]byte, error) {
	done := log.Benchmark("decrypt mnemonic")
	defer done()

	mnemonic, err := wallet.Decrypt(w.EncryptedMnemonic, password)
	if err != nil {
		log.WithWallet(w.ID).Warn().Msg("Mnemonic decryption failed")
		return nil, err
	}
	return mnemonic, nil
}

// GetWallet returns a copy of a wallet.
func (m *Manager) GetWallet(ctx context.Context, walletID string) (*Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.store.Get(walletID)
}

// ListWallets returns copies of all wallets in creation order.
func (m *Manager) ListWallets(ctx context.Context) ([]*Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.store.List(), nil
}

// AddAccount derives the next unused index for the wallet's active family.
func (m *Manager) AddAccount(ctx context.Context, walletID string, password []byte) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := m.lock(walletID)
	defer unlock()

	w, err := m.store.Get(walletID)
	if err != nil {
		return nil, err
	}

	seed, err := m.unlockSeed(w, password)
	if err != nil {
		return nil, err
	}
	defer zero(seed)

	now := m.now()
	acct, err := m.deriveAccount(seed, w.ID, w.ActiveNetwork, w.nextIndex(w.ActiveNetwork), now)
	if err != nil {
		return nil, err
	}
	w.Accounts = append(w.Accounts, acct)
	w.LastAccessed = now

	if err := m.store.Put(ctx, w); err != nil {
		return nil, err
	}

	log.WithWallet(w.ID).Info().
		Str("family", acct.ChainFamily.String()).
		Uint32("index", acct.Index).
		Str("address", acct.Address).
		Msg("Account added")
	out := acct.clone()
	return &out, nil
}

// SwitchAccount makes accountID the active account and its family the
// active network.
func (m *Manager) SwitchAccount(ctx context.Context, walletID, accountID string) (*Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := m.lock(walletID)
	defer unlock()

	w, err := m.store.Get(walletID)
	if err != nil {
		return nil, err
	}
	acct, ok := w.Account(accountID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	w.ActiveAccountID = acct.ID
	w.ActiveNetwork = acct.ChainFamily
	w.LastAccessed = m.now()
	if err := m.store.Put(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// SwitchNetwork makes family the active network. Existing accounts are
// never re-derived; account 0 of family is derived only when the wallet
// has no account of that family yet, and only then is password used.
func (m *Manager) SwitchNetwork(ctx context.Context, walletID string, family chain.Family, password []byte) (*Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !family.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFamily, family)
	}
	unlock := m.lock(walletID)
	defer unlock()

	w, err := m.store.Get(walletID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	existing := w.AccountsFor(family)
	if len(existing) == 0 {
		seed, err := m.unlockSeed(w, password)
		if err != nil {
			return nil, err
		}
		acct, err := m.deriveAccount(seed, w.ID, family, 0, now)
		zero(seed)
		if err != nil {
			return nil, err
		}
		w.Accounts = append(w.Accounts, acct)
		existing = []Account{acct}
		log.WithWallet(w.ID).Info().
			Str("family", family.String()).
			Str("address", acct.Address).
			Msg("Account derived for new network")
	}

	if active, ok := w.ActiveAccount(); !ok || active.ChainFamily != family {
		w.ActiveAccountID = existing[0].ID
	}
	w.ActiveNetwork = family
	w.LastAccessed = now

	if err := m.store.Put(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ExportWallet returns the decrypted mnemonic. The caller must zero it.
func (m *Manager) ExportWallet(ctx context.Context, walletID string, password []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := m.lock(walletID)
	defer unlock()

	w, err := m.store.Get(walletID)
	if err != nil {
		return nil, err
	}
	mnemonic, err := m.decryptMnemonic(w, password)
	if err != nil {
		return nil, err
	}

	if err := m.touch(ctx, w); err != nil {
		zero(mnemonic)
		return nil, err
	}
	log.WithWallet(w.ID).Info().Msg("Wallet exported")
	return mnemonic, nil
}

// BackupWallet returns the mnemonic with every account's derivation path.
func (m *Manager) BackupWallet(ctx context.Context, walletID string, password []byte) (*Backup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := m.lock(walletID)
	defer unlock()

	w, err := m.store.Get(walletID)
	if err != nil {
		return nil, err
	}
	mnemonic, err := m.decryptMnemonic(w, password)
	if err != nil {
		return nil, err
	}
	defer zero(mnemonic)

	b := &Backup{
		WalletID:  w.ID,
		Name:      w.Name,
		Mnemonic:  string(mnemonic),
		Accounts:  make([]BackupAccount, 0, len(w.Accounts)),
		CreatedAt: m.now(),
	}
	for _, a := range w.Accounts {
		b.Accounts = append(b.Accounts, BackupAccount{
			Index:          a.Index,
			DerivationPath: a.DerivationPath.String(),
			ChainFamily:    a.ChainFamily,
			Address:        a.Address,
		})
	}

	if err := m.touch(ctx, w); err != nil {
		return nil, err
	}
	log.WithWallet(w.ID).Info().Int("accounts", len(b.Accounts)).Msg("Wallet backed up")
	return b, nil
}

// ChangePassword re-encrypts the mnemonic under newPassword. The new
// ciphertext is decrypted and compared before it replaces the old one.
func (m *Manager) ChangePassword(ctx context.Context, walletID string, oldPassword, newPassword []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(newPassword) == 0 {
		return ErrEmptyPassword
	}
	unlock := m.lock(walletID)
	defer unlock()

	w, err := m.store.Get(walletID)
	if err != nil {
		return err
	}
	mnemonic, err := m.decryptMnemonic(w, oldPassword)
	if err != nil {
		return err
	}
	defer zero(mnemonic)

	ct, err := wallet.Encrypt(mnemonic, newPassword, m.opts.KDF)
	if err != nil {
		return fmt.Errorf("encrypt mnemonic: %w", err)
	}
	check, err := wallet.Decrypt(ct, newPassword)
	if err != nil {
		return fmt.Errorf("verify re-encrypted mnemonic: %w", err)
	}
	same := bytes.Equal(check, mnemonic)
	zero(check)
	if !same {
		return fmt.Errorf("verify re-encrypted mnemonic: plaintext mismatch")
	}

	w.EncryptedMnemonic = ct
	w.LastAccessed = m.now()
	if err := m.store.Put(ctx, w); err != nil {
		return err
	}
	log.WithWallet(w.ID).Info().Msg("Password changed")
	return nil
}

// VerifyPassword reports ErrInvalidPassword unless password decrypts the wallet.
func (m *Manager) VerifyPassword(ctx context.Context, walletID string, password []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w, err := m.store.Get(walletID)
	if err != nil {
		return err
	}
	mnemonic, err := m.decryptMnemonic(w, password)
	if err != nil {
		return err
	}
	zero(mnemonic)
	return nil
}

// RenameWallet changes a wallet's display name.
func (m *Manager) RenameWallet(ctx context.Context, walletID, name string) (*Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("wallet name must not be empty")
	}
	unlock := m.lock(walletID)
	defer unlock()

	w, err := m.store.Get(walletID)
	if err != nil {
		return nil, err
	}
	w.Name = name
	w.LastAccessed = m.now()
	if err := m.store.Put(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// DeleteWallet removes the wallet and its encrypted mnemonic. Irreversible.
func (m *Manager) DeleteWallet(ctx context.Context, walletID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := m.lock(walletID)
	defer unlock()

	if err := m.store.Delete(ctx, walletID); err != nil {
		return err
	}
	log.WithWallet(walletID).Info().Msg("Wallet deleted")
	return nil
}

// RemoveAccountFromWallet removes one account. The last account cannot be
// removed. When the active account is removed, the remaining account with
// the lowest index becomes active.
func (m *Manager) RemoveAccountFromWallet(ctx context.Context, walletID, accountID string) (*Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := m.lock(walletID)
	defer unlock()

	w, err := m.store.Get(walletID)
	if err != nil {
		return nil, err
	}
	pos := -1
	for i, a := range w.Accounts {
		if a.ID == accountID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	if len(w.Accounts) == 1 {
		return nil, ErrLastAccountRemovalDenied
	}

	removed := w.Accounts[pos]
	w.Accounts = append(w.Accounts[:pos], w.Accounts[pos+1:]...)
	if w.ActiveAccountID == removed.ID {
		next, _ := w.firstAccount()
		w.ActiveAccountID = next.ID
		w.ActiveNetwork = next.ChainFamily
	}
	w.LastAccessed = m.now()

	if err := m.store.Put(ctx, w); err != nil {
		return nil, err
	}
	log.WithWallet(w.ID).Info().
		Str("family", removed.ChainFamily.String()).
		Uint32("index", removed.Index).
		Msg("Account removed")
	return w, nil
}

// Sign signs payload with the account's key using the software signer.
func (m *Manager) Sign(ctx context.Context, walletID, accountID string, password, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, err := m.store.Get(walletID)
	if err != nil {
		return nil, err
	}
	if _, ok := w.Account(accountID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	seed, err := m.unlockSeed(w, password)
	if err != nil {
		return nil, err
	}
	s, err := signer.NewSoftware(seed)
	zero(seed)
	if err != nil {
		return nil, err
	}
	defer s.Zero()

	return m.SignWith(ctx, s, walletID, accountID, payload)
}

// SignWith signs payload for the account with an external signer, such as
// a hardware device holding the same seed.
func (m *Manager) SignWith(ctx context.Context, s signer.Signer, walletID, accountID string, payload []byte) ([]byte, error) {
	w, err := m.store.Get(walletID)
	if err != nil {
		return nil, err
	}
	acct, ok := w.Account(accountID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	sig, err := s.Sign(ctx, payload, acct.DerivationPath, acct.ChainFamily)
	if err != nil {
		return nil, fmt.Errorf("sign with account %s: %w", acct.ID, err)
	}
	return sig, nil
}

// touch updates LastAccessed.
func (m *Manager) touch(ctx context.Context, w *Wallet) error {
	w.LastAccessed = m.now()
	return m.store.Put(ctx, w)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
