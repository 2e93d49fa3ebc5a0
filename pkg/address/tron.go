package address

import (
	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

// TronVersion is the TRON mainnet address prefix byte.
const TronVersion byte = 0x41

type tronEncoder struct{}

func (tronEncoder) Family() chain.Family { return chain.Tron }

// Encode returns Base58Check(0x41 || keccak256(X||Y)[12:]).
func (tronEncoder) Encode(pub []byte) (string, error) {
	account, err := keccakAccount(chain.Tron, pub)
	if err != nil {
		return "", err
	}
	return base58.CheckEncode(account, TronVersion), nil
}

func (tronEncoder) IsWellFormed(s string) bool {
	if len(s) != 34 || s[0] != 'T' {
		return false
	}
	payload, version, err := base58.CheckDecode(s)
	return err == nil && version == TronVersion && len(payload) == 20
}
