// Package address turns derived public keys into chain-native address strings.
//
// There is one Encoder per chain.Family. Encoders are pure: the same public
// key and Params always produce the same address, and a failure never yields
// a partially formed string.
package address

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

// Errors returned by encoders, usually wrapped in an *EncodingError.
var (
	ErrUnsupportedFamily  = errors.New("unsupported chain family")
	ErrInvalidPublicKey   = errors.New("invalid public key")
	ErrInvalidAddressType = errors.New("invalid bitcoin address type")
)

// EncodingError reports a failure to encode an address for a chain family.
type EncodingError struct {
	Family chain.Family
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s address: %v", e.Family, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func encodingError(f chain.Family, format string, args ...any) error {
	return &EncodingError{Family: f, Err: fmt.Errorf(format, args...)}
}

// BitcoinAddressType selects one of the BITCOIN_LIKE address formats.
type BitcoinAddressType string

const (
	BitcoinLegacy     BitcoinAddressType = "legacy"      // P2PKH, 1... / L...
	BitcoinP2SHSegwit BitcoinAddressType = "p2sh-segwit" // P2SH-P2WPKH, 3... / M...
	BitcoinSegwit     BitcoinAddressType = "segwit"      // P2WPKH, bc1q... / ltc1q...
)

// ParseBitcoinAddressType parses an address type name. Empty means legacy.
func ParseBitcoinAddressType(s string) (BitcoinAddressType, error) {
	switch t := BitcoinAddressType(s); t {
	case "":
		return BitcoinLegacy, nil
	case BitcoinLegacy, BitcoinP2SHSegwit, BitcoinSegwit:
		return t, nil
	case "p2pkh":
		return BitcoinLegacy, nil
	case "p2sh-p2wpkh", "nested-segwit":
		return BitcoinP2SHSegwit, nil
	case "p2wpkh", "bech32", "native-segwit":
		return BitcoinSegwit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAddressType, s)
	}
}

// Params carries the network-dependent knobs of the encoders.
// The zero value selects Bitcoin mainnet legacy addresses, EIP-55
// checksummed EVM addresses and bounceable basechain TON addresses.
type Params struct {
	Network     chain.Network
	Coin        chain.Coin
	BitcoinType BitcoinAddressType

	// EVMLowercase disables the EIP-55 mixed-case checksum.
	EVMLowercase bool

	TONWorkchain     int8
	TONNonBounceable bool
}

// Encoder encodes public keys for exactly one chain family.
type Encoder interface {
	Family() chain.Family
	// Encode returns the address of a public key. secp256k1 families accept
	// compressed or uncompressed keys; SOLANA takes a 32-byte Ed25519 key.
	Encode(publicKey []byte) (string, error)
	// IsWellFormed reports whether s is a syntactically valid address of
	// this family on the configured network.
	IsWellFormed(s string) bool
}

// For returns the encoder bound to family f.
func For(f chain.Family, p Params) (Encoder, error) {
	switch f {
	case chain.EVM:
		return &evmEncoder{lowercase: p.EVMLowercase}, nil
	case chain.BitcoinLike:
		return newBitcoinEncoder(p)
	case chain.Solana:
		return solanaEncoder{}, nil
	case chain.Tron:
		return tronEncoder{}, nil
	case chain.XRP:
		return xrpEncoder{}, nil
	case chain.TON:
		return &tonEncoder{
			workchain:   p.TONWorkchain,
			bounceable:  !p.TONNonBounceable,
			testnetOnly: p.Network == chain.Testnet,
		}, nil
	default:
		return nil, &EncodingError{Family: f, Err: ErrUnsupportedFamily}
	}
}

// Encode is a shortcut for For(f, p) followed by Encode.
func Encode(f chain.Family, p Params, publicKey []byte) (string, error) {
	enc, err := For(f, p)
	if err != nil {
		return "", err
	}
	return enc.Encode(publicKey)
}

// IsWellFormed is a shortcut for For(f, p) followed by IsWellFormed.
// Unknown families report false.
func IsWellFormed(f chain.Family, p Params, s string) bool {
	enc, err := For(f, p)
	if err != nil {
		return false
	}
	return enc.IsWellFormed(s)
}
