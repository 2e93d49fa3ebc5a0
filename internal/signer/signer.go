// Package signer produces chain-native signatures over payloads using keys
// derived along an account's derivation path.
//
// The Signer interface is shared by the in-process Software signer and any
// external device signer, so callers never depend on where the key lives.
package signer

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"

	"github.com/Klingon-tech/klingnet-keyring/internal/log"
	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
	"github.com/Klingon-tech/klingnet-keyring/pkg/crypto"
)

// RecoverableSignatureSize is the length of an R||S||V signature.
const RecoverableSignatureSize = 65

var (
	ErrUnsupportedFamily = errors.New("unsupported chain family")
	ErrSignerClosed      = errors.New("signer closed")
)

// Signer signs a payload with the key at path for the given family.
type Signer interface {
	Sign(ctx context.Context, payload []byte, path chain.DerivationPath, family chain.Family) ([]byte, error)
}

// Software signs with keys derived from an in-memory seed.
type Software struct {
	mu   sync.Mutex
	seed []byte
}

// NewSoftware creates a signer over a copy of seed. Call Zero when done.
func NewSoftware(seed []byte) (*Software, error) {
	if len(seed) < wallet.MinSeedSize || len(seed) > wallet.MaxSeedSize {
		return nil, fmt.Errorf("seed must be %d-%d bytes, got %d", wallet.MinSeedSize, wallet.MaxSeedSize, len(seed))
	}
	return &Software{seed: append([]byte(nil), seed...)}, nil
}

// Sign derives the key at path and signs payload the way the family expects:
//
//	EVM           Keccak-256 digest, 65-byte recoverable signature
//	TRON          SHA-256 digest, 65-byte recoverable signature
//	BITCOIN_LIKE  double SHA-256 digest, DER signature
//	XRP           SHA-512Half digest, DER signature
//	TON           SHA-256 digest, DER signature
//	SOLANA        raw payload, 64-byte Ed25519 signature
func (s *Software) Sign(ctx context.Context, payload []byte, path chain.DerivationPath, family chain.Family) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !family.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFamily, family)
	}

	s.mu.Lock()
	if s.seed == nil {
		s.mu.Unlock()
		return nil, ErrSignerClosed
	}
	var sig []byte
	var err error
	switch family {
	case chain.BitcoinLike, chain.XRP, chain.TON:
		sig, err = s.signDER(payload, path, family)
	default:
		sig, err = s.signDerived(payload, path, family)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	log.Signer.Debug().
		Str("family", family.String()).
		Str("path", path.String()).
		Int("payload_len", len(payload)).
		Msg("Payload signed")
	return sig, nil
}

// Zero wipes the seed. Subsequent Sign calls fail with ErrSignerClosed.
func (s *Software) Zero() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.seed {
		s.seed[i] = 0
	}
	s.seed = nil
}

// signDER signs the family digest with a DER-encoded ECDSA signature.
func (s *Software) signDER(payload []byte, path chain.DerivationPath, family chain.Family) ([]byte, error) {
	digest, err := Digest(family, payload)
	if err != nil {
		return nil, err
	}
	priv, err := wallet.DeriveSigner(s.seed, path)
	if err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	defer priv.Zero()
	return priv.Sign(digest)
}

func (s *Software) signDerived(payload []byte, path chain.DerivationPath, family chain.Family) ([]byte, error) {
	km, err := wallet.Derive(s.seed, path, family.Curve())
	if err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	defer km.Zero()
	return signWith(km, payload, family)
}

func signWith(km *wallet.KeyMaterial, payload []byte, family chain.Family) ([]byte, error) {
	switch family {
	case chain.Solana:
		priv := solana.PrivateKey(ed25519.NewKeyFromSeed(km.PrivateKey))
		defer zero(priv)
		sig, err := priv.Sign(payload)
		if err != nil {
			return nil, fmt.Errorf("ed25519 sign: %w", err)
		}
		return sig[:], nil

	case chain.EVM, chain.Tron:
		digest, err := Digest(family, payload)
		if err != nil {
			return nil, err
		}
		priv, err := ethcrypto.ToECDSA(km.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("load signing key: %w", err)
		}
		defer priv.D.SetUint64(0)
		sig, err := ethcrypto.Sign(digest, priv)
		if err != nil {
			return nil, fmt.Errorf("recoverable sign: %w", err)
		}
		return sig, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFamily, family)
	}
}

// Digest returns the bytes actually signed for a family's payload.
// Solana signs the payload itself.
func Digest(family chain.Family, payload []byte) ([]byte, error) {
	switch family {
	case chain.EVM:
		return crypto.Keccak256(payload), nil
	case chain.Tron, chain.TON:
		return crypto.SHA256(payload), nil
	case chain.BitcoinLike:
		return crypto.DoubleSHA256(payload), nil
	case chain.XRP:
		return crypto.SHA512Half(payload), nil
	case chain.Solana:
		return payload, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFamily, family)
	}
}

// Verify checks a signature produced by Sign against the account's public
// key (compressed secp256k1 or 32-byte Ed25519). Returns false on any error.
func Verify(family chain.Family, payload, sig, pub []byte) bool {
	switch family {
	case chain.Solana:
		if len(pub) != solana.PublicKeyLength || len(sig) != ed25519.SignatureSize {
			return false
		}
		var s solana.Signature
		copy(s[:], sig)
		return s.Verify(solana.PublicKeyFromBytes(pub), payload)

	case chain.EVM, chain.Tron:
		if len(sig) != RecoverableSignatureSize {
			return false
		}
		digest, _ := Digest(family, payload)
		full, err := crypto.DecompressPublicKey(pub)
		if err != nil {
			return false
		}
		recovered, err := ethcrypto.Ecrecover(digest, sig)
		if err != nil || string(recovered) != string(full) {
			return false
		}
		return ethcrypto.VerifySignature(full, digest, sig[:64])

	case chain.BitcoinLike, chain.XRP, chain.TON:
		digest, _ := Digest(family, payload)
		return crypto.VerifySignature(digest, sig, pub)

	default:
		return false
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
