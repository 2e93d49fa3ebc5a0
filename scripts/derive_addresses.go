// derive_addresses.go prints the first accounts of every chain family for a
// mnemonic, for checking derivation against other wallets.
// Usage: go run scripts/derive_addresses.go [-n count] [-testnet] [-coin LTC] < mnemonic.txt
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
	"github.com/Klingon-tech/klingnet-keyring/pkg/address"
	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

func main() {
	count := flag.Uint("n", 1, "Accounts per family")
	testnet := flag.Bool("testnet", false, "Use testnet paths and prefixes")
	coin := flag.String("coin", "BTC", "BITCOIN_LIKE coin: BTC or LTC")
	btcType := flag.String("btc-type", "legacy", "BITCOIN_LIKE address type")
	passphrase := flag.String("passphrase", "", "BIP39 passphrase")
	flag.Parse()

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fatal(fmt.Errorf("read mnemonic: %w", err))
	}
	mnemonic := strings.TrimSpace(line)

	seed, err := wallet.SeedFromMnemonic(mnemonic, *passphrase)
	if err != nil {
		fatal(err)
	}

	params := address.Params{Network: chain.Mainnet}
	if *testnet {
		params.Network = chain.Testnet
	}
	if params.Coin, err = chain.ParseCoin(*coin); err != nil {
		fatal(err)
	}
	if params.BitcoinType, err = address.ParseBitcoinAddressType(*btcType); err != nil {
		fatal(err)
	}

	for _, f := range chain.Families {
		for i := uint32(0); i < uint32(*count); i++ {
			km, path, err := wallet.DeriveAccount(seed, f, params.Coin, params.Network, i)
			if err != nil {
				fatal(err)
			}
			addr, err := address.Encode(f, params, km.PublicKey)
			if err != nil {
				fatal(err)
			}
			fmt.Printf("%-12s %-22s pubkey=%s address=%s\n", f, path, hex.EncodeToString(km.PublicKey), addr)
			km.Zero()
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
