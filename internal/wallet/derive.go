package wallet

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
	"github.com/Klingon-tech/klingnet-keyring/pkg/crypto"
)

var (
	ErrUnsupportedDerivationPath = errors.New("unsupported derivation path")
	ErrCurveMismatch             = errors.New("curve mismatch")
)

// KeyMaterial is the key pair derived at one path. The caller owns it
// exclusively and must call Zero once the signing operation is done.
type KeyMaterial struct {
	Curve chain.Curve
	// PrivateKey is the 32-byte secp256k1 scalar or Ed25519 seed.
	PrivateKey []byte
	// PublicKey is 33-byte compressed secp256k1 or 32-byte Ed25519.
	PublicKey []byte
	// ChainCode is set for secp256k1 keys only.
	ChainCode []byte
}

// Zero wipes the private key and chain code.
func (k *KeyMaterial) Zero() {
	if k == nil {
		return
	}
	zero(k.PrivateKey)
	zero(k.ChainCode)
}

// UncompressedPublicKey returns the 65-byte 0x04||X||Y form of a secp256k1 key.
func (k *KeyMaterial) UncompressedPublicKey() ([]byte, error) {
	if k.Curve != chain.CurveSecp256k1 {
		return nil, fmt.Errorf("%w: %s key has no uncompressed form", ErrCurveMismatch, k.Curve)
	}
	return crypto.DecompressPublicKey(k.PublicKey)
}

// Derive derives the key at path from seed on the given curve.
// secp256k1 follows BIP-32, Ed25519 follows SLIP-0010 and rejects
// non-hardened steps with ErrCurveMismatch.
func Derive(seed []byte, path chain.DerivationPath, curve chain.Curve) (*KeyMaterial, error) {
	if len(seed) < MinSeedSize || len(seed) > MaxSeedSize {
		return nil, fmt.Errorf("seed must be %d-%d bytes, got %d", MinSeedSize, MaxSeedSize, len(seed))
	}

	switch curve {
	case chain.CurveSecp256k1:
		return deriveSecp256k1(seed, path)
	case chain.CurveEd25519:
		return deriveEd25519(seed, path)
	default:
		return nil, fmt.Errorf("%w: unknown curve %s", ErrCurveMismatch, curve)
	}
}

// DerivePathString parses a textual path such as "m/44'/60'/0'/0/0" and
// derives it. Parse failures wrap ErrUnsupportedDerivationPath.
func DerivePathString(seed []byte, path string, curve chain.Curve) (*KeyMaterial, error) {
	parsed, err := chain.ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedDerivationPath, err)
	}
	return Derive(seed, parsed, curve)
}

// DeriveAccount derives account index i of a family along its standard path.
func DeriveAccount(seed []byte, f chain.Family, coin chain.Coin, network chain.Network, index uint32) (*KeyMaterial, chain.DerivationPath, error) {
	path, err := chain.AccountPath(f, coin, network, index)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedDerivationPath, err)
	}
	km, err := Derive(seed, path, f.Curve())
	if err != nil {
		return nil, nil, err
	}
	return km, path, nil
}

// DeriveSigner derives the secp256k1 key at path and returns it as a
// signing key. The caller must Zero it.
func DeriveSigner(seed []byte, path chain.DerivationPath) (*crypto.PrivateKey, error) {
	if len(seed) < MinSeedSize || len(seed) > MaxSeedSize {
		return nil, fmt.Errorf("seed must be %d-%d bytes, got %d", MinSeedSize, MaxSeedSize, len(seed))
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	defer master.Zero()

	key, err := master.DerivePath(path)
	if err != nil {
		return nil, err
	}
	if key != master {
		defer key.Zero()
	}
	return key.Signer()
}

func deriveSecp256k1(seed []byte, path chain.DerivationPath) (*KeyMaterial, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	defer master.Zero()

	key, err := master.DerivePath(path)
	if err != nil {
		return nil, err
	}
	if key != master {
		defer key.Zero()
	}

	return &KeyMaterial{
		Curve:      chain.CurveSecp256k1,
		PrivateKey: key.PrivateKeyBytes(),
		PublicKey:  key.PublicKeyBytes(),
		ChainCode:  key.ChainCode(),
	}, nil
}
