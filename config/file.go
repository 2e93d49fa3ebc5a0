package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

// EnvPrefix prefixes every environment override, e.g. KEYRING_LOG_LEVEL.
const EnvPrefix = "KEYRING"

// Keys lists every recognized config key.
var Keys = []string{
	"network",
	"datadir",
	"storage.backend",
	"storage.path",
	"kdf.memory",
	"kdf.iterations",
	"kdf.parallelism",
	"wallet.family",
	"wallet.coin",
	"wallet.btc_address_type",
	"wallet.accounts",
	"wallet.mnemonic_bits",
	"wallet.evm_lowercase",
	"wallet.ton_workchain",
	"wallet.ton_non_bounceable",
	"log.level",
	"log.file",
	"log.json",
}

// Load builds a Config from defaults, the optional file at path and
// KEYRING_* environment variables. A missing file is not an error.
// The network is resolved first since it selects the defaults.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	network, err := chain.ParseNetwork(v.GetString("network"))
	if err != nil {
		return nil, fmt.Errorf("config key %q: %w", "network", err)
	}
	cfg := Default(network)

	if err := ApplyViper(cfg, v); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyViper copies every key set in v onto cfg.
func ApplyViper(cfg *Config, v *viper.Viper) error {
	for _, key := range Keys {
		if !v.IsSet(key) {
			continue
		}
		if err := setConfigValue(cfg, key, v.GetString(key)); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// ApplyValues applies plain key/value overrides, such as CLI flags.
func ApplyValues(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	// Core
	case "network":
		n, err := chain.ParseNetwork(value)
		if err != nil {
			return err
		}
		cfg.Network = n
	case "datadir":
		cfg.DataDir = value

	// Storage
	case "storage.backend":
		cfg.Storage.Backend = value
	case "storage.path":
		cfg.Storage.Path = value

	// KDF
	case "kdf.memory":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.KDF.Memory = uint32(n)
	case "kdf.iterations":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.KDF.Iterations = uint32(n)
	case "kdf.parallelism":
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return err
		}
		cfg.KDF.Parallelism = uint8(n)

	// Wallet
	case "wallet.family":
		cfg.Wallet.DefaultFamily = value
	case "wallet.coin":
		cfg.Wallet.Coin = value
	case "wallet.btc_address_type":
		cfg.Wallet.BitcoinAddressType = value
	case "wallet.accounts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Wallet.AccountCount = n
	case "wallet.mnemonic_bits":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Wallet.MnemonicBits = n
	case "wallet.evm_lowercase":
		cfg.Wallet.EVMLowercase = parseBool(value)
	case "wallet.ton_workchain":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Wallet.TONWorkchain = n
	case "wallet.ton_non_bounceable":
		cfg.Wallet.TONNonBounceable = parseBool(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default TOML configuration file.
func WriteDefaultConfig(path string, network chain.Network) error {
	cfg := Default(network)
	content := `# Klingnet Keyring Configuration (TOML)
#
# Every key can be overridden with a KEYRING_ environment variable,
# e.g. KEYRING_LOG_LEVEL=debug or KEYRING_WALLET_FAMILY=solana.

# Network: mainnet or testnet
network = "` + string(network) + `"

# Data directory (default: ~/.klingnet-keyring)
# datadir = "~/.klingnet-keyring"

# ============================================================================
# Storage
# ============================================================================

[storage]
# Backend: badger, file (single JSON file) or memory (lost on exit)
backend = "` + cfg.Storage.Backend + `"
# path = "~/.klingnet-keyring/mainnet/keyring"

# ============================================================================
# Mnemonic encryption (Argon2id)
# ============================================================================

[kdf]
# Memory in KiB
memory = ` + strconv.FormatUint(uint64(cfg.KDF.Memory), 10) + `
iterations = ` + strconv.FormatUint(uint64(cfg.KDF.Iterations), 10) + `
parallelism = ` + strconv.FormatUint(uint64(cfg.KDF.Parallelism), 10) + `

# ============================================================================
# Wallet defaults
# ============================================================================

[wallet]
# Chain family: evm, bitcoin_like, solana, tron, xrp, ton
family = "` + strings.ToLower(cfg.Wallet.DefaultFamily) + `"

# BITCOIN_LIKE coin: BTC or LTC
coin = "` + cfg.Wallet.Coin + `"

# BITCOIN_LIKE address type: legacy, p2sh-segwit, segwit
btc_address_type = "` + cfg.Wallet.BitcoinAddressType + `"

# Accounts derived when a wallet is created
accounts = ` + strconv.Itoa(cfg.Wallet.AccountCount) + `

# Entropy of generated mnemonics: 128 (12 words) to 256 (24 words)
mnemonic_bits = ` + strconv.Itoa(cfg.Wallet.MnemonicBits) + `

# evm_lowercase = false
# ton_workchain = 0
# ton_non_bounceable = false

# ============================================================================
# Logging
# ============================================================================

[log]
level = "info"
# file = ""
json = false
`
	return os.WriteFile(path, []byte(content), 0600)
}
