package config

import (
	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	kdf := wallet.DefaultParams()
	return &Config{
		Network: chain.Mainnet,
		DataDir: DefaultDataDir(),
		Storage: StorageConfig{
			Backend: "badger",
		},
		KDF: KDFConfig{
			Memory:      kdf.Memory,
			Iterations:  kdf.Iterations,
			Parallelism: kdf.Parallelism,
		},
		Wallet: WalletConfig{
			DefaultFamily:      chain.EVM.String(),
			Coin:               string(chain.CoinBTC),
			BitcoinAddressType: "segwit",
			AccountCount:       1,
			MnemonicBits:       wallet.DefaultEntropyBits,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = chain.Testnet
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network chain.Network) *Config {
	switch network {
	case chain.Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
