package chain

import (
	"fmt"
	"strings"
)

// Network identifies mainnet or testnet.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// ParseNetwork parses "mainnet" or "testnet".
func ParseNetwork(s string) (Network, error) {
	switch Network(strings.ToLower(strings.TrimSpace(s))) {
	case Mainnet, "":
		return Mainnet, nil
	case Testnet:
		return Testnet, nil
	default:
		return "", fmt.Errorf("unknown network %q", s)
	}
}

// Coin selects a concrete coin inside the BITCOIN_LIKE family.
type Coin string

const (
	CoinBTC Coin = "BTC"
	CoinLTC Coin = "LTC"
)

// ParseCoin parses a BITCOIN_LIKE coin symbol.
func ParseCoin(s string) (Coin, error) {
	switch Coin(strings.ToUpper(strings.TrimSpace(s))) {
	case CoinBTC, "":
		return CoinBTC, nil
	case CoinLTC:
		return CoinLTC, nil
	default:
		return "", fmt.Errorf("unknown coin %q", s)
	}
}

// SLIP-0044 coin types (unhardened values).
const (
	CoinTypeBitcoin  uint32 = 0
	CoinTypeTestnet  uint32 = 1
	CoinTypeLitecoin uint32 = 2
	CoinTypeEthereum uint32 = 60
	CoinTypeXRP      uint32 = 144
	CoinTypeTron     uint32 = 195
	CoinTypeSolana   uint32 = 501
	CoinTypeTON      uint32 = 607
)

// CoinType returns the SLIP-0044 coin type for a family.
// The coin only matters for BitcoinLike; testnet Bitcoin-like coins share coin type 1.
func CoinType(f Family, coin Coin, network Network) (uint32, error) {
	switch f {
	case EVM:
		return CoinTypeEthereum, nil
	case BitcoinLike:
		if network == Testnet {
			return CoinTypeTestnet, nil
		}
		switch coin {
		case CoinBTC, "":
			return CoinTypeBitcoin, nil
		case CoinLTC:
			return CoinTypeLitecoin, nil
		default:
			return 0, fmt.Errorf("unknown coin %q", coin)
		}
	case Solana:
		return CoinTypeSolana, nil
	case Tron:
		return CoinTypeTron, nil
	case XRP:
		return CoinTypeXRP, nil
	case TON:
		return CoinTypeTON, nil
	default:
		return 0, fmt.Errorf("unknown chain family %s", f)
	}
}
