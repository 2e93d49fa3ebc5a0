package chain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is added to an index to mark it hardened (BIP-32).
const HardenedOffset uint32 = 0x80000000

// PurposeBIP44 is the BIP-44 purpose field (unhardened value).
const PurposeBIP44 uint32 = 44

// ErrMalformedPath is returned by ParsePath for unparseable path strings.
var ErrMalformedPath = errors.New("malformed derivation path")

// DerivationPath is an ordered list of BIP-32 child indices.
// Hardened indices carry HardenedOffset.
type DerivationPath []uint32

// Hardened returns i with the hardened bit set.
func Hardened(i uint32) uint32 {
	return i | HardenedOffset
}

// IsHardened reports whether an index carries the hardened bit.
func IsHardened(i uint32) bool {
	return i >= HardenedOffset
}

// ParsePath parses "m/44'/60'/0'/0/0". Hardened steps may be marked with
// ', h or H. The bare "m" is the master path.
func ParsePath(s string) (DerivationPath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrMalformedPath)
	}
	parts := strings.Split(s, "/")
	if parts[0] != "m" && parts[0] != "M" {
		return nil, fmt.Errorf("%w: %q must start with m", ErrMalformedPath, s)
	}

	path := make(DerivationPath, 0, len(parts)-1)
	for i, part := range parts[1:] {
		if part == "" {
			return nil, fmt.Errorf("%w: empty component at position %d", ErrMalformedPath, i+1)
		}
		hardened := false
		if last := part[len(part)-1]; last == '\'' || last == 'h' || last == 'H' {
			hardened = true
			part = part[:len(part)-1]
		}
		if part == "" || part[0] == '+' || part[0] == '-' {
			return nil, fmt.Errorf("%w: invalid component %q", ErrMalformedPath, parts[i+1])
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid component %q", ErrMalformedPath, parts[i+1])
		}
		idx := uint32(n)
		if IsHardened(idx) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrMalformedPath, n)
		}
		if hardened {
			idx = Hardened(idx)
		}
		path = append(path, idx)
	}
	return path, nil
}

// MustParsePath is ParsePath for package-level constants and tests.
func MustParsePath(s string) DerivationPath {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the canonical form using ' for hardened steps.
func (p DerivationPath) String() string {
	var sb strings.Builder
	sb.WriteByte('m')
	for _, idx := range p {
		sb.WriteByte('/')
		if IsHardened(idx) {
			sb.WriteString(strconv.FormatUint(uint64(idx-HardenedOffset), 10))
			sb.WriteByte('\'')
		} else {
			sb.WriteString(strconv.FormatUint(uint64(idx), 10))
		}
	}
	return sb.String()
}

// FullyHardened reports whether every step is hardened.
func (p DerivationPath) FullyHardened() bool {
	for _, idx := range p {
		if !IsHardened(idx) {
			return false
		}
	}
	return true
}

// MarshalText encodes the path in canonical string form.
func (p DerivationPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a path string.
func (p *DerivationPath) UnmarshalText(text []byte) error {
	parsed, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// AccountPath returns the BIP-44 path of account index i for a family:
//
//	m/44'/coin'/0'/0/i      secp256k1 families
//	m/44'/501'/0'/0'/i'     Solana (every step hardened)
func AccountPath(f Family, coin Coin, network Network, index uint32) (DerivationPath, error) {
	if IsHardened(index) {
		return nil, fmt.Errorf("account index %d out of range", index)
	}
	coinType, err := CoinType(f, coin, network)
	if err != nil {
		return nil, err
	}
	if f.Curve().HardenedOnly() {
		return DerivationPath{
			Hardened(PurposeBIP44),
			Hardened(coinType),
			Hardened(0),
			Hardened(0),
			Hardened(index),
		}, nil
	}
	return DerivationPath{
		Hardened(PurposeBIP44),
		Hardened(coinType),
		Hardened(0),
		0,
		index,
	}, nil
}

// AccountIndex returns the last path component with the hardened bit cleared.
func (p DerivationPath) AccountIndex() uint32 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1] &^ HardenedOffset
}
