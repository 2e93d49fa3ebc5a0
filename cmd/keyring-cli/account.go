package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ── account ─────────────────────────────────────────────────────────────

func (a *app) accountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the accounts of a wallet",
	}
	cmd.AddCommand(
		a.accountListCommand(),
		a.accountAddCommand(),
		a.accountSwitchCommand(),
		a.accountRemoveCommand(),
	)
	return cmd
}

func (a *app) accountListCommand() *cobra.Command {
	var ref, family string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts, optionally of one family",
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

			accounts := w.Accounts
			if family != "" {
				f, err := parseFamilyFlag(family, w.ActiveNetwork)
				if err != nil {
					return err
				}
				accounts = w.AccountsFor(f)
			}

			views := make([]accountView, 0, len(accounts))
			for _, acc := range accounts {
				views = append(views, newAccountView(w, acc))
			}
			if a.jsonOutput {
				return a.printJSON(views)
			}
			for _, v := range views {
				a.printAccountLine(v)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	cmd.Flags().StringVar(&family, "family", "", "Only list accounts of this family")
	return cmd
}

func (a *app) accountAddCommand() *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Derive the next account on the active network",
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

			acc, err := mgr.AddAccount(cmd.Context(), w.ID, password)
			if err != nil {
				return fmt.Errorf("add account: %w", err)
			}
			w, err = mgr.GetWallet(cmd.Context(), w.ID)
			if err != nil {
				return err
			}
			return a.printAccount("Account added", w, *acc)
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	return cmd
}

func (a *app) accountSwitchCommand() *cobra.Command {
	var ref, account string
	cmd := &cobra.Command{
		Use:   "switch",
		Short: "Make an account the active one",
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
			if account == "" {
				return fmt.Errorf("--account is required")
			}
			acc, err := resolveAccount(w, account)
			if err != nil {
				return err
			}
			w, err = mgr.SwitchAccount(cmd.Context(), w.ID, acc.ID)
			if err != nil {
				return err
			}
			return a.printAccount("Active account", w, acc)
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	cmd.Flags().StringVar(&account, "account", "", "Account id or address")
	return cmd
}

func (a *app) accountRemoveCommand() *cobra.Command {
	var ref, account string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove an account from a wallet",
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
			if account == "" {
				return fmt.Errorf("--account is required")
			}
			acc, err := resolveAccount(w, account)
			if err != nil {
				return err
			}
			w, err = mgr.RemoveAccountFromWallet(cmd.Context(), w.ID, acc.ID)
			if err != nil {
				return fmt.Errorf("remove account: %w", err)
			}
			return a.printWallet(fmt.Sprintf("Account %s removed", acc.Address), w)
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	cmd.Flags().StringVar(&account, "account", "", "Account id or address")
	return cmd
}

// ── network ─────────────────────────────────────────────────────────────

func (a *app) networkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Select the active chain family of a wallet",
	}
	cmd.AddCommand(a.networkSwitchCommand())
	return cmd
}

func (a *app) networkSwitchCommand() *cobra.Command {
	var ref, family string
	cmd := &cobra.Command{
		Use:   "switch",
		Short: "Switch the active chain family, deriving its first account if needed",
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
			if family == "" {
				return fmt.Errorf("--family is required")
			}
			f, err := parseFamilyFlag(family, w.ActiveNetwork)
			if err != nil {
				return err
			}

			// A password is only needed to derive the family's first account.
			var password []byte
			if len(w.AccountsFor(f)) == 0 {
				password, err = a.readPassword("Enter password: ")
				if err != nil {
					return err
				}
				defer zero(password)
			}

			w, err = mgr.SwitchNetwork(cmd.Context(), w.ID, f, password)
			if err != nil {
				return fmt.Errorf("switch network: %w", err)
			}
			acc, _ := w.ActiveAccount()
			return a.printAccount(fmt.Sprintf("Active network %s", f), w, acc)
		},
	}
	cmd.Flags().StringVar(&ref, "wallet", "", "Wallet id or name")
	cmd.Flags().StringVar(&family, "family", "", "Chain family: evm, bitcoin_like, solana, tron, xrp, ton")
	return cmd
}
