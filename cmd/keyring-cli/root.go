package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klingnet-keyring/config"
	"github.com/Klingon-tech/klingnet-keyring/internal/keyring"
	"github.com/Klingon-tech/klingnet-keyring/internal/log"
	"github.com/Klingon-tech/klingnet-keyring/internal/storage"
)

// overrideFlags maps CLI flags onto config keys.
var overrideFlags = map[string]string{
	"datadir":   "datadir",
	"network":   "network",
	"backend":   "storage.backend",
	"log-level": "log.level",
}

// app holds the state shared by every command of one invocation.
type app struct {
	configPath   string
	passwordFile string
	jsonOutput   bool

	stdin  *bufio.Reader
	rawIn  io.Reader
	stdout io.Writer
	stderr io.Writer

	passwords []string

	cfg *config.Config
	db  storage.Backend
	ns  *storage.PrefixDB
	mgr *keyring.Manager
}

// run executes one CLI invocation and releases the storage backend.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{
		stdin:  bufio.NewReader(stdin),
		rawIn:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "keyring-cli",
		Short: "Multi-chain HD keyring",
		Long: `keyring-cli derives EVM, Bitcoin/Litecoin, Solana, TRON, XRP and TON
accounts from a single BIP39 mnemonic and keeps the mnemonic encrypted
in a local keyring.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default: <datadir>/keyring.toml)")
	pf.String("datadir", config.DefaultDataDir(), "Data directory")
	pf.String("network", "mainnet", "mainnet or testnet")
	pf.String("backend", "", "Storage backend: badger, file or memory")
	pf.String("log-level", "", "Log level: debug, info, warn, error, off")
	pf.StringVar(&a.passwordFile, "password-file", "", "Read passwords from this file, one per line")
	pf.BoolVar(&a.jsonOutput, "json", false, "Print JSON output")

	root.AddCommand(
		a.walletCommand(),
		a.accountCommand(),
		a.networkCommand(),
		a.signCommand(),
		a.verifyCommand(),
		a.configCommand(),
		a.resetCommand(),
	)
	return root
}

// loadConfig resolves the config from file, environment and flags.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	flags := cmd.Flags()

	path := a.configPath
	if path == "" {
		dataDir, _ := flags.GetString("datadir")
		path = (&config.Config{DataDir: dataDir}).ConfigFile()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for flag, key := range overrideFlags {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			values[key] = f.Value.String()
		}
	}
	if err := config.ApplyValues(cfg, values); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	a.cfg = cfg
	return cfg, nil
}

// manager opens the storage backend and returns the wallet manager.
func (a *app) manager(cmd *cobra.Command) (*keyring.Manager, error) {
	if a.mgr != nil {
		return a.mgr, nil
	}
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	path := cfg.StoragePath()
	if cfg.Storage.Backend == "badger" {
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	db, err := storage.Open(cfg.Storage.Backend, path)
	if err != nil {
		return nil, err
	}
	a.db = db
	// Networks never share records, even when storage.path is shared.
	a.ns = storage.NewPrefixDB(db, string(cfg.Network)+"/")

	store, err := keyring.NewStore(cmd.Context(), a.ns)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.KeyringOptions()
	if err != nil {
		return nil, err
	}
	mgr, err := keyring.NewManager(store, opts)
	if err != nil {
		return nil, err
	}
	log.CLI.Debug().
		Str("network", string(cfg.Network)).
		Str("backend", cfg.Storage.Backend).
		Int("wallets", store.Len()).
		Msg("Keyring opened")

	a.mgr = mgr
	return mgr, nil
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		log.CLI.Warn().Err(err).Msg("Failed to close storage")
	}
	a.db = nil
}
