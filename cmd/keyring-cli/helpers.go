package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-keyring/internal/keyring"
	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

var (
	errPasswordMismatch = errors.New("passwords do not match")
	errAmbiguousWallet  = errors.New("wallet name is ambiguous, use the wallet id")
	errNoInput          = errors.New("no input")
)

// ── Input ───────────────────────────────────────────────────────────────

// terminalFd returns the descriptor of stdin when it is a terminal.
func (a *app) terminalFd() (int, bool) {
	f, ok := a.rawIn.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// readLine reads one trimmed line from stdin.
func (a *app) readLine(prompt string) (string, error) {
	if _, tty := a.terminalFd(); tty {
		fmt.Fprint(a.stderr, prompt)
	}
	line, err := a.stdin.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", errNoInput
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads a password from --password-file, the terminal
// (hidden) or a line of piped stdin, in that order.
func (a *app) readPassword(prompt string) ([]byte, error) {
	if a.passwordFile != "" {
		return a.nextFilePassword()
	}
	if fd, tty := a.terminalFd(); tty {
		fmt.Fprint(a.stderr, prompt)
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(a.stderr) // newline after hidden input
		if err != nil {
			return nil, err
		}
		return password, nil
	}
	line, err := a.readLine(prompt)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return []byte(line), nil
}

// readNewPassword reads a password and, on a terminal, its confirmation.
func (a *app) readNewPassword(prompt string) ([]byte, error) {
	password, err := a.readPassword(prompt)
	if err != nil {
		return nil, err
	}
	if _, tty := a.terminalFd(); !tty || a.passwordFile != "" {
		return password, nil
	}
	confirm, err := a.readPassword("Confirm password: ")
	if err != nil {
		zero(password)
		return nil, err
	}
	defer zero(confirm)
	if !bytes.Equal(password, confirm) {
		zero(password)
		return nil, errPasswordMismatch
	}
	return password, nil
}

func (a *app) nextFilePassword() ([]byte, error) {
	if a.passwords == nil {
		data, err := os.ReadFile(a.passwordFile)
		if err != nil {
			return nil, fmt.Errorf("read password file: %w", err)
		}
		a.passwords = strings.Split(strings.TrimRight(string(data), "\r\n"), "\n")
	}
	if len(a.passwords) == 0 {
		return nil, fmt.Errorf("password file %s: %w", a.passwordFile, errNoInput)
	}
	p := strings.TrimRight(a.passwords[0], "\r")
	a.passwords = a.passwords[1:]
	return []byte(p), nil
}

// parsePayload decodes the payload from exactly one of hex or message.
func parsePayload(hexPayload, message string) ([]byte, error) {
	switch {
	case hexPayload != "" && message != "":
		return nil, errors.New("use either --hex or --message, not both")
	case hexPayload != "":
		b, err := hex.DecodeString(strings.TrimPrefix(hexPayload, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %w", err)
		}
		return b, nil
	case message != "":
		return []byte(message), nil
	default:
		return nil, errors.New("a payload is required (--hex or --message)")
	}
}

// ── Lookup ──────────────────────────────────────────────────────────────

// resolveWallet finds a wallet by id, then by unique name.
func resolveWallet(ctx context.Context, mgr *keyring.Manager, ref string) (*keyring.Wallet, error) {
	if ref == "" {
		return nil, errors.New("--wallet is required")
	}
	if w, err := mgr.GetWallet(ctx, ref); err == nil {
		return w, nil
	} else if !errors.Is(err, keyring.ErrWalletNotFound) {
		return nil, err
	}

	wallets, err := mgr.ListWallets(ctx)
	if err != nil {
		return nil, err
	}
	var found *keyring.Wallet
	for _, w := range wallets {
		if w.Name != ref {
			continue
		}
		if found != nil {
			return nil, errAmbiguousWallet
		}
		found = w
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", keyring.ErrWalletNotFound, ref)
	}
	return found, nil
}

// resolveAccount finds an account by id or address; empty selects the active one.
func resolveAccount(w *keyring.Wallet, ref string) (keyring.Account, error) {
	if ref == "" {
		if acc, ok := w.ActiveAccount(); ok {
			return acc, nil
		}
		return keyring.Account{}, keyring.ErrAccountNotFound
	}
	if acc, ok := w.Account(ref); ok {
		return acc, nil
	}
	for _, acc := range w.Accounts {
		if strings.EqualFold(acc.Address, ref) {
			return acc, nil
		}
	}
	return keyring.Account{}, fmt.Errorf("%w: %s", keyring.ErrAccountNotFound, ref)
}

// parseFamilyFlag parses a family name, falling back to def when empty.
func parseFamilyFlag(s string, def chain.Family) (chain.Family, error) {
	if s == "" {
		return def, nil
	}
	return chain.ParseFamily(s)
}

// ── Output ──────────────────────────────────────────────────────────────

type accountView struct {
	ID             string `json:"id"`
	Index          uint32 `json:"index"`
	ChainFamily    string `json:"chainFamily"`
	DerivationPath string `json:"derivationPath"`
	Address        string `json:"address"`
	PublicKey      string `json:"publicKey,omitempty"`
	Active         bool   `json:"active"`
}

type walletView struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	ActiveNetwork   string        `json:"activeNetwork"`
	ActiveAccountID string        `json:"activeAccountId"`
	CreatedAt       time.Time     `json:"createdAt"`
	LastAccessed    time.Time     `json:"lastAccessed"`
	Accounts        []accountView `json:"accounts"`
}

func newAccountView(w *keyring.Wallet, acc keyring.Account) accountView {
	return accountView{
		ID:             acc.ID,
		Index:          acc.Index,
		ChainFamily:    acc.ChainFamily.String(),
		DerivationPath: acc.DerivationPath.String(),
		Address:        acc.Address,
		PublicKey:      hex.EncodeToString(acc.PublicKey),
		Active:         acc.ID == w.ActiveAccountID,
	}
}

// newWalletView renders a wallet without its encrypted mnemonic.
func newWalletView(w *keyring.Wallet) walletView {
	v := walletView{
		ID:              w.ID,
		Name:            w.Name,
		ActiveNetwork:   w.ActiveNetwork.String(),
		ActiveAccountID: w.ActiveAccountID,
		CreatedAt:       w.CreatedAt,
		LastAccessed:    w.LastAccessed,
		Accounts:        make([]accountView, 0, len(w.Accounts)),
	}
	for _, acc := range w.Accounts {
		v.Accounts = append(v.Accounts, newAccountView(w, acc))
	}
	return v
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printWallet(title string, w *keyring.Wallet) error {
	v := newWalletView(w)
	if a.jsonOutput {
		return a.printJSON(v)
	}
	out := a.stdout
	if title != "" {
		fmt.Fprintln(out, title)
	}
	fmt.Fprintf(out, "  ID:       %s\n", v.ID)
	fmt.Fprintf(out, "  Name:     %s\n", v.Name)
	fmt.Fprintf(out, "  Network:  %s\n", v.ActiveNetwork)
	fmt.Fprintf(out, "  Created:  %s\n", v.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "  Accounts: %d\n", len(v.Accounts))
	for _, acc := range v.Accounts {
		a.printAccountLine(acc)
	}
	return nil
}

func (a *app) printAccountLine(acc accountView) {
	marker := " "
	if acc.Active {
		marker = "*"
	}
	fmt.Fprintf(a.stdout, "  %s %-12s %-20s %s\n", marker, acc.ChainFamily, acc.DerivationPath, acc.Address)
}

func (a *app) printAccount(title string, w *keyring.Wallet, acc keyring.Account) error {
	v := newAccountView(w, acc)
	if a.jsonOutput {
		return a.printJSON(v)
	}
	fmt.Fprintln(a.stdout, title)
	fmt.Fprintf(a.stdout, "  ID:      %s\n", v.ID)
	fmt.Fprintf(a.stdout, "  Family:  %s\n", v.ChainFamily)
	fmt.Fprintf(a.stdout, "  Path:    %s\n", v.DerivationPath)
	fmt.Fprintf(a.stdout, "  Address: %s\n", v.Address)
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
