package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klingnet-keyring/config"
	"github.com/Klingon-tech/klingnet-keyring/internal/signer"
	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

// ── sign / verify ───────────────────────────────────────────────────────

type signatureView struct {
	Family    string `json:"family"`
	Address   string `json:"address"`
	Path      string `json:"derivationPath"`
	Digest    string `json:"digest"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

func (a *app) signCommand() *cobra.Command {
	var ref, account, hexPayload, message string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a payload with an account key",
		Long: `Sign a payload with an account key. EVM and TRON produce 65-byte
recoverable signatures, Solana a 64-byte Ed25519 signature and the other
families a DER-encoded ECDSA signature over the family digest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := parsePayload(hexPayload, message)
			if err != nil {
				return err
			}
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			w, err := resolveWallet(cmd.Context(), mgr, ref)
			if err != nil {
				return err
			}
			acc, err := resolveAccount(w, account)
			if err != nil {
				return err
			}
			password, err := a.readPassword("Enter password: ")
			if err != nil {
				return err
			}
			defer zero(password)

			sig, err := mgr.Sign(cmd.Context(), w.ID, acc.ID, password, payload)
			if err != nil {
				return err
			}
			digest, err := signer.Digest(acc.ChainFamily, payload)
			if err != nil {
				return err
			}

			v := signatureView{
				Family:    acc.ChainFamily.String(),
				Address:   acc.Address,
				Path:      acc.DerivationPath.String(),
				Digest:    hex.EncodeToString(digest),
				Signature: hex.EncodeToString(sig),
				PublicKey: hex.EncodeToString(acc.PublicKey),
			}
			if a.jsonOutput {
				return a.printJSON(v)
			}
			fmt.Fprintf(a.stdout, "Family:     %s\n", v.Family)
			fmt.Fprintf(a.stdout, "Address:    %s\n", v.Address)
			fmt.Fprintf(a.stdout, "Path:       %s\n", v.Path)
			fmt.Fprintf(a.stdout, "Public key: %s\n", v.PublicKey)
			fmt.Fprintf(a.stdout, "Signature:  %s\n", v.Signature)
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	cmd.Flags().StringVar(&account, "account", "", "Account id or address (default: active account)")
	cmd.Flags().StringVar(&hexPayload, "hex", "", "Hex payload")
	cmd.Flags().StringVar(&message, "message", "", "UTF-8 payload")
	return cmd
}

func (a *app) verifyCommand() *cobra.Command {
	var family, pubHex, sigHex, hexPayload, message string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature produced by sign",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := chain.ParseFamily(family)
			if err != nil {
				return err
			}
			payload, err := parsePayload(hexPayload, message)
			if err != nil {
				return err
			}
			pub, err := hex.DecodeString(strings.TrimPrefix(pubHex, "0x"))
			if err != nil {
				return fmt.Errorf("invalid public key: %w", err)
			}
			sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
			if err != nil {
				return fmt.Errorf("invalid signature: %w", err)
			}
			if !signer.Verify(f, payload, sig, pub) {
				return errors.New("signature is invalid")
			}
			fmt.Fprintln(a.stdout, "Signature is valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "Chain family of the signing account")
	cmd.Flags().StringVar(&pubHex, "pubkey", "", "Hex public key")
	cmd.Flags().StringVar(&sigHex, "sig", "", "Hex signature")
	cmd.Flags().StringVar(&hexPayload, "hex", "", "Hex payload")
	cmd.Flags().StringVar(&message, "message", "", "UTF-8 payload")
	return cmd
}

// ── config ──────────────────────────────────────────────────────────────

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(a.configInitCommand(), a.configShowCommand())
	return cmd
}

func (a *app) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default keyring.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			network, _ := flags.GetString("network")
			n, err := chain.ParseNetwork(network)
			if err != nil {
				return err
			}
			path := a.configPath
			if path == "" {
				dataDir, _ := flags.GetString("datadir")
				path = (&config.Config{DataDir: dataDir}).ConfigFile()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			if err := config.WriteDefaultConfig(path, n); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(a.stdout, "Config written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func (a *app) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cfg)
			}
			out := a.stdout
			fmt.Fprintf(out, "network                 = %s\n", cfg.Network)
			fmt.Fprintf(out, "datadir                 = %s\n", cfg.DataDir)
			fmt.Fprintf(out, "storage.backend         = %s\n", cfg.Storage.Backend)
			fmt.Fprintf(out, "storage.path            = %s\n", cfg.StoragePath())
			fmt.Fprintf(out, "kdf                     = m=%d,t=%d,p=%d\n", cfg.KDF.Memory, cfg.KDF.Iterations, cfg.KDF.Parallelism)
			fmt.Fprintf(out, "wallet.family           = %s\n", cfg.Wallet.DefaultFamily)
			fmt.Fprintf(out, "wallet.coin             = %s\n", cfg.Wallet.Coin)
			fmt.Fprintf(out, "wallet.btc_address_type = %s\n", cfg.Wallet.BitcoinAddressType)
			fmt.Fprintf(out, "wallet.accounts         = %d\n", cfg.Wallet.AccountCount)
			fmt.Fprintf(out, "wallet.mnemonic_bits    = %d\n", cfg.Wallet.MnemonicBits)
			fmt.Fprintf(out, "log.level               = %s\n", cfg.Log.Level)
			return nil
		},
	}
}
