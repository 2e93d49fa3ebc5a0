package address

import (
	"github.com/gagliardetto/solana-go"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

type solanaEncoder struct{}

func (solanaEncoder) Family() chain.Family { return chain.Solana }

// Encode returns the Base58 form of the raw 32-byte Ed25519 key.
func (solanaEncoder) Encode(pub []byte) (string, error) {
	if len(pub) != solana.PublicKeyLength {
		return "", encodingError(chain.Solana, "%w: want %d bytes, got %d", ErrInvalidPublicKey, solana.PublicKeyLength, len(pub))
	}
	key := solana.PublicKeyFromBytes(pub)
	if !key.IsOnCurve() {
		return "", encodingError(chain.Solana, "%w: not an ed25519 point", ErrInvalidPublicKey)
	}
	return key.String(), nil
}

// IsWellFormed accepts any Base58 string decoding to 32 bytes. Program
// derived addresses are off-curve but still valid.
func (solanaEncoder) IsWellFormed(s string) bool {
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}
