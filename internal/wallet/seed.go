package wallet

import (
	"bytes"
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

// SeedSize is the length of a derived seed in bytes (512 bits).
const SeedSize = 64

// BIP-39 seed stretching parameters.
const (
	seedIterations = 2048
	seedSaltPrefix = "mnemonic"
)

// SeedFromMnemonic derives a 512-bit seed from a mnemonic and optional passphrase
// using PBKDF2-SHA512 as specified in BIP-39.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return deriveSeed([]byte(NormalizeMnemonic(mnemonic)), passphrase), nil
}

// SeedFromMnemonicBytes is SeedFromMnemonic for a mnemonic held in a byte
// slice, such as one just decrypted from storage. The mnemonic is not
// re-validated and the caller keeps ownership of (and zeroes) the input.
func SeedFromMnemonicBytes(mnemonic []byte, passphrase string) ([]byte, error) {
	if len(bytes.TrimSpace(mnemonic)) == 0 {
		return nil, ErrInvalidMnemonic
	}
	normalized := norm.NFKD.Append(nil, mnemonic...)
	words := bytes.Fields(normalized)
	joined := bytes.Join(words, []byte{' '})
	zero(normalized)
	defer zero(joined)

	return deriveSeed(joined, passphrase), nil
}

func deriveSeed(mnemonic []byte, passphrase string) []byte {
	salt := []byte(seedSaltPrefix + norm.NFKD.String(passphrase))
	return pbkdf2.Key(mnemonic, salt, seedIterations, SeedSize, sha512.New)
}
