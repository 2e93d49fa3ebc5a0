package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip32"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
	"github.com/Klingon-tech/klingnet-keyring/pkg/crypto"
)

// BIP-32 accepts seeds between 128 and 512 bits.
const (
	MinSeedSize = 16
	MaxSeedSize = SeedSize
)

// maxDepth is the largest depth a serialized BIP-32 key can carry.
const maxDepth = 255

// HDKey represents a hierarchical deterministic secp256k1 key (BIP-32).
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key from a 16 to 64 byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) < MinSeedSize || len(seed) > MaxSeedSize {
		return nil, fmt.Errorf("seed must be %d-%d bytes, got %d", MinSeedSize, MaxSeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DeriveChild derives a child key at the given index.
// For hardened derivation, add chain.HardenedOffset to the index.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives a key along a path. Intermediate keys are zeroed.
func (k *HDKey) DerivePath(path chain.DerivationPath) (*HDKey, error) {
	if int(k.Depth())+len(path) > maxDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds %d", ErrUnsupportedDerivationPath, int(k.Depth())+len(path), maxDepth)
	}
	current := k
	for _, idx := range path {
		child, err := current.DeriveChild(idx)
		if current != k {
			current.Zero()
		}
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// PrivateKeyBytes returns the raw 32-byte private key.
// Returns nil if this is a public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.IsPrivate() {
		return nil
	}
	// bip32 Key.Key may carry a leading 0x00 or be short of leading zeros.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	out := make([]byte, 32)
	copy(out[32-len(raw):], raw)
	return out
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// ChainCode returns a copy of the 32-byte chain code.
func (k *HDKey) ChainCode() []byte {
	return append([]byte(nil), k.key.ChainCode...)
}

// Signer returns a crypto.PrivateKey for this HD key's private key.
// The caller must Zero it when done.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot create signer from public key")
	}
	defer zero(priv)
	return crypto.PrivateKeyFromBytes(priv)
}

// IsPrivate returns true if this key contains a private key.
func (k *HDKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}

// Zero wipes the key and chain code in place.
func (k *HDKey) Zero() {
	if k == nil || k.key == nil {
		return
	}
	if k.IsPrivate() {
		zero(k.key.Key)
	}
	zero(k.key.ChainCode)
}
