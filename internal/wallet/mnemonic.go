// Package wallet implements the key-handling core of the keyring: BIP-39
// mnemonics and seeds, BIP-32 and SLIP-0010 derivation, and password-based
// encryption of secrets at rest.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/text/unicode/norm"
)

// DefaultEntropyBits is the entropy size for 24-word mnemonics.
const DefaultEntropyBits = 256

var (
	ErrInvalidEntropySize = errors.New("invalid entropy size")
	ErrInvalidMnemonic    = errors.New("invalid mnemonic")
)

// MnemonicWordCount returns the number of words a mnemonic of the given
// entropy size has (12 for 128 bits up to 24 for 256 bits).
func MnemonicWordCount(entropyBits int) (int, error) {
	if entropyBits < 128 || entropyBits > 256 || entropyBits%32 != 0 {
		return 0, fmt.Errorf("%w: %d bits", ErrInvalidEntropySize, entropyBits)
	}
	return (entropyBits + entropyBits/32) / 11, nil
}

// GenerateMnemonic creates a new BIP-39 mnemonic from entropyBits of
// crypto/rand entropy. entropyBits must be one of 128, 160, 192, 224 or 256.
func GenerateMnemonic(entropyBits int) (string, error) {
	if _, err := MnemonicWordCount(entropyBits); err != nil {
		return "", err
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	defer zero(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks if a mnemonic is valid per BIP-39
// (correct word count, valid words, valid checksum).
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic))
}

// NormalizeMnemonic applies NFKD and collapses runs of whitespace to single
// spaces. Word spelling and case are left untouched.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(norm.NFKD.String(mnemonic)), " ")
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
