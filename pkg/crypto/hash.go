// Package crypto provides the hash and signature primitives shared by the
// address encoders and signers.
package crypto

import (
	"crypto/sha256"
	"crypto/sha512"

	"github.com/btcsuite/btcd/btcutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/zeebo/blake3"
)

// HashSize is the length of a 256-bit digest.
const HashSize = 32

// Hash computes a BLAKE3-256 hash of the input data.
// Used for identifiers, never for chain address derivation.
func Hash(data ...[]byte) [HashSize]byte {
	h := blake3.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [HashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Keccak256 computes the legacy Keccak-256 digest used by EVM and TRON.
func Keccak256(data ...[]byte) []byte {
	return ethcrypto.Keccak256(data...)
}

// SHA256 computes a single SHA-256 digest.
func SHA256(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// DoubleSHA256 computes SHA256(SHA256(data)).
func DoubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// Hash160 computes RIPEMD160(SHA256(data)).
func Hash160(data []byte) []byte {
	return btcutil.Hash160(data)
}

// SHA512Half returns the first 32 bytes of SHA-512(data), the XRP Ledger signing digest.
func SHA512Half(data []byte) []byte {
	h := sha512.Sum512(data)
	return h[:HashSize]
}

// Checksum4 returns the first four bytes of DoubleSHA256(data), the Base58Check checksum.
func Checksum4(data []byte) []byte {
	return DoubleSHA256(data)[:4]
}
