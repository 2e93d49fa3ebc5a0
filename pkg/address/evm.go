package address

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

type evmEncoder struct {
	lowercase bool
}

func (e *evmEncoder) Family() chain.Family { return chain.EVM }

func (e *evmEncoder) Encode(pub []byte) (string, error) {
	account, err := keccakAccount(chain.EVM, pub)
	if err != nil {
		return "", err
	}
	addr := common.BytesToAddress(account)
	if e.lowercase {
		return "0x" + hex.EncodeToString(addr[:]), nil
	}
	return addr.Hex(), nil
}

// IsWellFormed accepts 0x-prefixed 40-digit hex. Mixed-case input must carry
// a valid EIP-55 checksum.
func (e *evmEncoder) IsWellFormed(s string) bool {
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return false
	}
	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(s).Hex() == s
}
