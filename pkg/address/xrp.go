package address

import (
	"bytes"

	"github.com/mr-tron/base58"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
	"github.com/Klingon-tech/klingnet-keyring/pkg/crypto"
)

// XRPAlphabet is the XRP Ledger Base58 dictionary. Same characters as
// Bitcoin's, different order.
const XRPAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

// XRPAccountVersion is the classic address type prefix.
const XRPAccountVersion byte = 0x00

var xrpAlphabet = base58.NewAlphabet(XRPAlphabet)

type xrpEncoder struct{}

func (xrpEncoder) Family() chain.Family { return chain.XRP }

// Encode returns the classic address: 0x00 || HASH160(pub) || checksum.
func (xrpEncoder) Encode(pub []byte) (string, error) {
	compressed, err := compressedKey(chain.XRP, pub)
	if err != nil {
		return "", err
	}
	payload := make([]byte, 0, 25)
	payload = append(payload, XRPAccountVersion)
	payload = append(payload, crypto.Hash160(compressed)...)
	payload = append(payload, crypto.Checksum4(payload)...)
	return base58.EncodeAlphabet(payload, xrpAlphabet), nil
}

func (xrpEncoder) IsWellFormed(s string) bool {
	if len(s) < 25 || len(s) > 35 || s[0] != 'r' {
		return false
	}
	raw, err := base58.DecodeAlphabet(s, xrpAlphabet)
	if err != nil || len(raw) != 25 || raw[0] != XRPAccountVersion {
		return false
	}
	return bytes.Equal(raw[21:], crypto.Checksum4(raw[:21]))
}
