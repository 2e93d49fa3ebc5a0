// Package keyring manages wallets and their derived accounts.
//
// A Wallet holds one encrypted mnemonic and any number of accounts derived
// from it across chain families. The mnemonic is decrypted only for the
// duration of an operation that needs key material and is wiped before
// the operation returns.
package keyring

import (
	"encoding/hex"
	"sort"
	"time"

	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
	"github.com/Klingon-tech/klingnet-keyring/pkg/crypto"
)

// recordVersion is the persisted wallet record format version.
const recordVersion = 1

// accountIDSize is the number of BLAKE3 bytes kept for an account id.
const accountIDSize = 16

// Account is one derived address within a wallet.
type Account struct {
	ID             string              `json:"id"`
	Index          uint32              `json:"index"`
	DerivationPath chain.DerivationPath `json:"derivationPath"`
	ChainFamily    chain.Family        `json:"chainFamily"`
	Address        string              `json:"address"`
	PublicKey      []byte              `json:"publicKey,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// Wallet is a named keyring entry. EncryptedMnemonic is the only secret and
// is always stored encrypted.
type Wallet struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	EncryptedMnemonic *wallet.Ciphertext `json:"encryptedMnemonic"`
	Accounts          []Account          `json:"accounts"`
	ActiveNetwork     chain.Family       `json:"activeNetwork"`
	ActiveAccountID   string             `json:"activeAccountId"`
	CreatedAt         time.Time          `json:"createdAt"`
	LastAccessed      time.Time          `json:"lastAccessed"`
	Version           int                `json:"version"`
}

// Backup is a recovery document: the mnemonic plus the derivation paths of
// every account. It never contains private keys.
type Backup struct {
	WalletID  string          `json:"walletId"`
	Name      string          `json:"name"`
	Mnemonic  string          `json:"mnemonic"`
	Accounts  []BackupAccount `json:"accounts"`
	CreatedAt time.Time       `json:"createdAt"`
}

// BackupAccount is the non-secret part of an account needed to re-derive it.
type BackupAccount struct {
	Index          uint32       `json:"index"`
	DerivationPath string       `json:"derivationPath"`
	ChainFamily    chain.Family `json:"chainFamily"`
	Address        string       `json:"address"`
}

// accountID derives a stable account id from the wallet id, family and path.
func accountID(walletID string, f chain.Family, path chain.DerivationPath) string {
	h := crypto.Hash([]byte(walletID), []byte{'|'}, []byte(f.String()), []byte{'|'}, []byte(path.String()))
	return hex.EncodeToString(h[:accountIDSize])
}

// Clone returns a deep copy of the wallet.
func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	c := *w
	if w.EncryptedMnemonic != nil {
		ct := *w.EncryptedMnemonic
		ct.Salt = append([]byte(nil), ct.Salt...)
		ct.Nonce = append([]byte(nil), ct.Nonce...)
		ct.Data = append([]byte(nil), ct.Data...)
		ct.Tag = append([]byte(nil), ct.Tag...)
		c.EncryptedMnemonic = &ct
	}
	c.Accounts = make([]Account, len(w.Accounts))
	for i, a := range w.Accounts {
		c.Accounts[i] = a.clone()
	}
	return &c
}

func (a Account) clone() Account {
	a.DerivationPath = append(chain.DerivationPath(nil), a.DerivationPath...)
	a.PublicKey = append([]byte(nil), a.PublicKey...)
	return a
}

// Account returns the account with the given id.
func (w *Wallet) Account(id string) (Account, bool) {
	for _, a := range w.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// ActiveAccount returns the currently selected account.
func (w *Wallet) ActiveAccount() (Account, bool) {
	return w.Account(w.ActiveAccountID)
}

// AccountsFor returns the accounts of one family ordered by index.
func (w *Wallet) AccountsFor(f chain.Family) []Account {
	var out []Account
	for _, a := range w.Accounts {
		if a.ChainFamily == f {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// nextIndex returns one past the highest index used by family f.
func (w *Wallet) nextIndex(f chain.Family) uint32 {
	var next uint32
	for _, a := range w.Accounts {
		if a.ChainFamily == f && a.Index >= next {
			next = a.Index + 1
		}
	}
	return next
}

// firstAccount returns the account with the lowest (index, family) pair.
func (w *Wallet) firstAccount() (Account, bool) {
	if len(w.Accounts) == 0 {
		return Account{}, false
	}
	best := w.Accounts[0]
	for _, a := range w.Accounts[1:] {
		if a.Index < best.Index || (a.Index == best.Index && a.ChainFamily < best.ChainFamily) {
			best = a
		}
	}
	return best, true
}
