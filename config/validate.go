package config

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-keyring/internal/keyring"
	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
	"github.com/Klingon-tech/klingnet-keyring/pkg/address"
	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

// Validate checks the config for obvious operator mistakes and normalizes
// enum-like fields to their canonical spelling.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != chain.Mainnet && cfg.Network != chain.Testnet {
		return fmt.Errorf("network must be %q or %q", chain.Mainnet, chain.Testnet)
	}

	switch strings.ToLower(cfg.Storage.Backend) {
	case "", "badger":
		cfg.Storage.Backend = "badger"
	case "memory", "file":
		cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)
	default:
		return fmt.Errorf("storage.backend must be badger, file or memory")
	}

	if err := cfg.EncryptionParams().Validate(); err != nil {
		return fmt.Errorf("kdf: %w", err)
	}

	family, err := chain.ParseFamily(cfg.Wallet.DefaultFamily)
	if err != nil {
		return fmt.Errorf("wallet.family: %w", err)
	}
	cfg.Wallet.DefaultFamily = family.String()

	coin, err := chain.ParseCoin(cfg.Wallet.Coin)
	if err != nil {
		return fmt.Errorf("wallet.coin: %w", err)
	}
	cfg.Wallet.Coin = string(coin)

	bt, err := address.ParseBitcoinAddressType(cfg.Wallet.BitcoinAddressType)
	if err != nil {
		return fmt.Errorf("wallet.btc_address_type: %w", err)
	}
	cfg.Wallet.BitcoinAddressType = string(bt)

	if cfg.Wallet.AccountCount < 1 || cfg.Wallet.AccountCount > keyring.MaxAccountCount {
		return fmt.Errorf("wallet.accounts must be in range [1, %d]", keyring.MaxAccountCount)
	}
	if _, err := wallet.MnemonicWordCount(cfg.Wallet.MnemonicBits); err != nil {
		return fmt.Errorf("wallet.mnemonic_bits: %w", err)
	}
	if cfg.Wallet.TONWorkchain < -128 || cfg.Wallet.TONWorkchain > 127 {
		return fmt.Errorf("wallet.ton_workchain must be in range [-128, 127]")
	}

	return nil
}

// EncryptionParams returns the configured Argon2id parameters.
func (c *Config) EncryptionParams() wallet.EncryptionParams {
	return wallet.EncryptionParams{
		Memory:      c.KDF.Memory,
		Iterations:  c.KDF.Iterations,
		Parallelism: c.KDF.Parallelism,
	}
}

// Family returns the default chain family. Call Validate first.
func (c *Config) Family() chain.Family {
	f, _ := chain.ParseFamily(c.Wallet.DefaultFamily)
	return f
}

// KeyringOptions builds keyring.Manager options from the config.
func (c *Config) KeyringOptions() (keyring.Options, error) {
	if err := Validate(c); err != nil {
		return keyring.Options{}, err
	}
	opts := keyring.DefaultOptions()
	opts.Network = c.Network
	opts.Coin = chain.Coin(c.Wallet.Coin)
	opts.KDF = c.EncryptionParams()
	opts.MnemonicBits = c.Wallet.MnemonicBits
	opts.Address = address.Params{
		BitcoinType:      address.BitcoinAddressType(c.Wallet.BitcoinAddressType),
		EVMLowercase:     c.Wallet.EVMLowercase,
		TONWorkchain:     int8(c.Wallet.TONWorkchain),
		TONNonBounceable: c.Wallet.TONNonBounceable,
	}
	return opts, nil
}
