// Package config handles keyring configuration.
//
// Settings come from three layers, later layers winning:
//   - Defaults for the selected network
//   - A keyring.toml file ([storage], [kdf], [wallet] and [log] tables)
//   - KEYRING_* environment variables (KEYRING_WALLET_FAMILY, ...)
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

// Config holds keyring runtime configuration.
type Config struct {
	// Core
	Network chain.Network `conf:"network"`
	DataDir string        `conf:"datadir"`

	// Storage backend
	Storage StorageConfig

	// Argon2id parameters for newly encrypted mnemonics
	KDF KDFConfig

	// Wallet defaults
	Wallet WalletConfig

	// Logging
	Log LogConfig
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Backend string `conf:"storage.backend"` // badger, file or memory
	Path    string `conf:"storage.path"`    // defaults to <datadir>/<network>/keyring
}

// KDFConfig holds Argon2id parameters.
type KDFConfig struct {
	Memory      uint32 `conf:"kdf.memory"` // KiB
	Iterations  uint32 `conf:"kdf.iterations"`
	Parallelism uint8  `conf:"kdf.parallelism"`
}

// WalletConfig holds defaults for new wallets and address encoding.
type WalletConfig struct {
	DefaultFamily      string `conf:"wallet.family"`
	Coin               string `conf:"wallet.coin"`
	BitcoinAddressType string `conf:"wallet.btc_address_type"`
	AccountCount       int    `conf:"wallet.accounts"`
	MnemonicBits       int    `conf:"wallet.mnemonic_bits"`
	EVMLowercase       bool   `conf:"wallet.evm_lowercase"`
	TONWorkchain       int    `conf:"wallet.ton_workchain"`
	TONNonBounceable   bool   `conf:"wallet.ton_non_bounceable"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-keyring
//	macOS:   ~/Library/Application Support/KlingnetKeyring
//	Windows: %APPDATA%\KlingnetKeyring
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-keyring"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetKeyring")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetKeyring")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetKeyring")
	default:
		return filepath.Join(home, ".klingnet-keyring")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StoragePath returns the storage backend directory.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.NetworkDataDir(), "keyring")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "keyring.toml")
}
