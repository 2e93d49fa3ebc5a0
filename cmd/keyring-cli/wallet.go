package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
)

// ── wallet ──────────────────────────────────────────────────────────────

func (a *app) walletCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Create, import and manage wallets",
	}
	cmd.AddCommand(
		a.walletCreateCommand(),
		a.walletImportCommand(),
		a.walletListCommand(),
		a.walletShowCommand(),
		a.walletRenameCommand(),
		a.walletDeleteCommand(),
		a.walletExportCommand(),
		a.walletBackupCommand(),
		a.walletPasswdCommand(),
		a.walletVerifyPasswordCommand(),
	)
	return cmd
}

func (a *app) walletCreateCommand() *cobra.Command {
	var (
		name     string
		family   string
		accounts int
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a wallet with a new mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			f, err := parseFamilyFlag(family, a.cfg.Family())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("accounts") {
				accounts = a.cfg.Wallet.AccountCount
			}

			password, err := a.readNewPassword("Enter password: ")
			if err != nil {
				return err
			}
			defer zero(password)

			ctx := cmd.Context()
			w, err := mgr.CreateWallet(ctx, name, password, f, accounts)
			if err != nil {
				return fmt.Errorf("create wallet: %w", err)
			}
			if !quiet && !a.jsonOutput {
				mnemonic, err := mgr.ExportWallet(ctx, w.ID, password)
				if err != nil {
					return fmt.Errorf("read back mnemonic: %w", err)
				}
				fmt.Fprintln(a.stdout, "Mnemonic (write this down!):")
				fmt.Fprintf(a.stdout, "  %s\n\n", mnemonic)
				zero(mnemonic)
			}
			return a.printWallet("Wallet created", w)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Wallet name (default: Wallet N)")
	cmd.Flags().StringVar(&family, "family", "", "Chain family of the first accounts")
	cmd.Flags().IntVar(&accounts, "accounts", 1, "Number of accounts to derive")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Do not print the mnemonic")
	return cmd
}

func (a *app) walletImportCommand() *cobra.Command {
	var (
		name     string
		family   string
		mnemonic string
		accounts int
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a wallet from a mnemonic",
		Long: `Import a wallet from a BIP39 mnemonic. Without --mnemonic the phrase is
read from the first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			f, err := parseFamilyFlag(family, a.cfg.Family())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("accounts") {
				accounts = a.cfg.Wallet.AccountCount
			}
			if mnemonic == "" {
				mnemonic, err = a.readLine("Mnemonic: ")
				if err != nil {
					return fmt.Errorf("read mnemonic: %w", err)
				}
			}

			password, err := a.readNewPassword("Enter password: ")
			if err != nil {
				return err
			}
			defer zero(password)

			w, err := mgr.ImportWallet(cmd.Context(), name, mnemonic, password, f, accounts)
			if err != nil {
				return fmt.Errorf("import wallet: %w", err)
			}
			return a.printWallet("Wallet imported", w)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Wallet name (default: Wallet N)")
	cmd.Flags().StringVar(&family, "family", "", "Chain family of the first accounts")
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "BIP39 mnemonic (visible in shell history)")
	cmd.Flags().IntVar(&accounts, "accounts", 1, "Number of accounts to derive")
	return cmd
}

func (a *app) walletListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			wallets, err := mgr.ListWallets(cmd.Context())
			if err != nil {
				return err
			}

			if a.jsonOutput {
				views := make([]walletView, 0, len(wallets))
				for _, w := range wallets {
					views = append(views, newWalletView(w))
				}
				return a.printJSON(views)
			}
			if len(wallets) == 0 {
				fmt.Fprintln(a.stdout, "No wallets found.")
				return nil
			}
			for _, w := range wallets {
				active := ""
				if acc, ok := w.ActiveAccount(); ok {
					active = acc.Address
				}
				fmt.Fprintf(a.stdout, "%s  %-20s %-12s %d account(s)  %s\n",
					w.ID, w.Name, w.ActiveNetwork, len(w.Accounts), active)
			}
			return nil
		},
	}
}

func (a *app) walletShowCommand() *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a wallet and its accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			w, err := resolveWallet(cmd.Context(), mgr, ref)
			if err != nil {
				return err
			}
			return a.printWallet("", w)
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	return cmd
}

func (a *app) walletRenameCommand() *cobra.Command {
	var ref, name string
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename a wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			w, err := resolveWallet(cmd.Context(), mgr, ref)
			if err != nil {
				return err
			}
			w, err = mgr.RenameWallet(cmd.Context(), w.ID, name)
			if err != nil {
				return err
			}
			return a.printWallet("Wallet renamed", w)
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	cmd.Flags().StringVar(&name, "name", "", "New wallet name")
	return cmd
}

func (a *app) walletDeleteCommand() *cobra.Command {
	var (
		ref string
		yes bool
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a wallet from the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			w, err := resolveWallet(cmd.Context(), mgr, ref)
			if err != nil {
				return err
			}
			if !yes {
				return errors.New("deleting a wallet cannot be undone; back it up and pass --yes")
			}
			if err := mgr.DeleteWallet(cmd.Context(), w.ID); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wallet %s deleted\n", w.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func (a *app) walletExportCommand() *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the wallet mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			w, err := resolveWallet(cmd.Context(), mgr, ref)
			if err != nil {
				return err
			}
			password, err := a.readPassword("Enter password: ")
			if err != nil {
				return err
			}
			defer zero(password)

			mnemonic, err := mgr.ExportWallet(cmd.Context(), w.ID, password)
			if err != nil {
				return fmt.Errorf("export wallet: %w", err)
			}
			defer zero(mnemonic)

			fmt.Fprintf(a.stderr, "WARNING: anyone with this mnemonic controls every account of %q.\n", w.Name)
			fmt.Fprintf(a.stdout, "%s\n", mnemonic)
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	return cmd
}

func (a *app) walletBackupCommand() *cobra.Command {
	var ref, out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a JSON backup with the mnemonic and account paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			w, err := resolveWallet(cmd.Context(), mgr, ref)
			if err != nil {
				return err
			}
			password, err := a.readPassword("Enter password: ")
			if err != nil {
				return err
			}
			defer zero(password)

			backup, err := mgr.BackupWallet(cmd.Context(), w.ID, password)
			if err != nil {
				return fmt.Errorf("backup wallet: %w", err)
			}
			data, err := json.MarshalIndent(backup, "", "  ")
			if err != nil {
				return err
			}
			defer zero(data)

			if out == "" {
				_, err = fmt.Fprintf(a.stdout, "%s\n", data)
				return err
			}
			if err := os.WriteFile(out, append(data, '\n'), 0600); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintf(a.stdout, "Backup of %d account(s) written to %s\n", len(backup.Accounts), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	return cmd
}

func (a *app) walletPasswdCommand() *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the wallet password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			w, err := resolveWallet(cmd.Context(), mgr, ref)
			if err != nil {
				return err
			}
			oldPassword, err := a.readPassword("Current password: ")
			if err != nil {
				return err
			}
			defer zero(oldPassword)
			newPassword, err := a.readNewPassword("New password: ")
			if err != nil {
				return err
			}
			defer zero(newPassword)

			if err := mgr.ChangePassword(cmd.Context(), w.ID, oldPassword, newPassword); err != nil {
				return fmt.Errorf("change password: %w", err)
			}
			fmt.Fprintln(a.stdout, "Password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	return cmd
}

func (a *app) walletVerifyPasswordCommand() *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "check-password",
		Short: "Check a password without revealing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			w, err := resolveWallet(cmd.Context(), mgr, ref)
			if err != nil {
				return err
			}
			password, err := a.readPassword("Enter password: ")
			if err != nil {
				return err
			}
			defer zero(password)

			if err := mgr.VerifyPassword(cmd.Context(), w.ID, password); err != nil {
				if errors.Is(err, wallet.ErrInvalidPassword) {
					return errors.New("password is incorrect")
				}
				return err
			}
			fmt.Fprintln(a.stdout, "Password is correct")
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	return cmd
}

// ── reset ───────────────────────────────────────────────────────────────

func (a *app) resetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every wallet of the selected network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.manager(cmd); err != nil {
				return err
			}
			if !yes {
				return errors.New("reset deletes every wallet of the network; pass --yes")
			}
			if err := a.ns.DeleteAll(cmd.Context()); err != nil {
				return fmt.Errorf("reset keyring: %w", err)
			}
			fmt.Fprintf(a.stdout, "Keyring for %s cleared\n", a.cfg.Network)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm reset")
	return cmd
}
