// Package chain defines the chain families, curves, coins and derivation
// paths supported by the keyring. All chain-specific constants live here.
package chain

import (
	"fmt"
	"strings"
)

// Curve identifies the elliptic curve a chain family signs with.
type Curve uint8

const (
	CurveSecp256k1 Curve = iota + 1
	CurveEd25519
)

// String returns the curve name.
func (c Curve) String() string {
	switch c {
	case CurveSecp256k1:
		return "secp256k1"
	case CurveEd25519:
		return "ed25519"
	default:
		return fmt.Sprintf("curve(%d)", uint8(c))
	}
}

// HardenedOnly reports whether every derivation step on this curve must be hardened.
func (c Curve) HardenedOnly() bool {
	return c == CurveEd25519
}

// Family is a closed set of blockchain families. Each family is bound to
// exactly one curve and one address algorithm.
type Family uint8

const (
	EVM Family = iota + 1
	BitcoinLike
	Solana
	Tron
	XRP
	TON
)

// Families lists every supported family in canonical order.
var Families = []Family{EVM, BitcoinLike, Solana, Tron, XRP, TON}

var familyNames = map[Family]string{
	EVM:         "EVM",
	BitcoinLike: "BITCOIN_LIKE",
	Solana:      "SOLANA",
	Tron:        "TRON",
	XRP:         "XRP",
	TON:         "TON",
}

// String returns the canonical upper-case family name.
func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FAMILY(%d)", uint8(f))
}

// Valid reports whether f is one of the known families.
func (f Family) Valid() bool {
	_, ok := familyNames[f]
	return ok
}

// Curve returns the curve bound to the family.
func (f Family) Curve() Curve {
	switch f {
	case Solana:
		return CurveEd25519
	case EVM, BitcoinLike, Tron, XRP, TON:
		return CurveSecp256k1
	default:
		return 0
	}
}

// ParseFamily parses a family name. Matching is case-insensitive and accepts
// a few common aliases ("eth", "btc", "sol", "trx").
func ParseFamily(s string) (Family, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EVM", "ETH", "ETHEREUM":
		return EVM, nil
	case "BITCOIN_LIKE", "BITCOIN", "BTC", "UTXO":
		return BitcoinLike, nil
	case "SOLANA", "SOL":
		return Solana, nil
	case "TRON", "TRX":
		return Tron, nil
	case "XRP", "RIPPLE":
		return XRP, nil
	case "TON":
		return TON, nil
	default:
		return 0, fmt.Errorf("unknown chain family %q", s)
	}
}

// MarshalText encodes the family as its canonical name.
func (f Family) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid chain family %d", uint8(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText decodes a family name.
func (f *Family) UnmarshalText(text []byte) error {
	parsed, err := ParseFamily(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
