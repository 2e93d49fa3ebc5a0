package address

import (
	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
	"github.com/Klingon-tech/klingnet-keyring/pkg/crypto"
)

// compressedKey validates a secp256k1 public key in either encoding and
// returns its 33-byte compressed form.
func compressedKey(f chain.Family, pub []byte) ([]byte, error) {
	if len(pub) != crypto.CompressedPubKeySize && len(pub) != crypto.UncompressedPubKeySize {
		return nil, encodingError(f, "%w: want 33 or 65 bytes, got %d", ErrInvalidPublicKey, len(pub))
	}
	out, err := crypto.CompressPublicKey(pub)
	if err != nil {
		return nil, &EncodingError{Family: f, Err: err}
	}
	return out, nil
}

// uncompressedKey validates a secp256k1 public key in either encoding and
// returns its 65-byte uncompressed form.
func uncompressedKey(f chain.Family, pub []byte) ([]byte, error) {
	if len(pub) != crypto.CompressedPubKeySize && len(pub) != crypto.UncompressedPubKeySize {
		return nil, encodingError(f, "%w: want 33 or 65 bytes, got %d", ErrInvalidPublicKey, len(pub))
	}
	out, err := crypto.DecompressPublicKey(pub)
	if err != nil {
		return nil, &EncodingError{Family: f, Err: err}
	}
	return out, nil
}

// keccakAccount returns the last 20 bytes of Keccak-256 over the 64-byte
// X||Y point, the account id shared by EVM and TRON.
func keccakAccount(f chain.Family, pub []byte) ([]byte, error) {
	full, err := uncompressedKey(f, pub)
	if err != nil {
		return nil, err
	}
	h := crypto.Keccak256(full[1:])
	return h[len(h)-20:], nil
}
