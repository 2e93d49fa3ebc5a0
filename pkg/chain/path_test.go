package chain

import (
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want DerivationPath
	}{
		{"m", DerivationPath{}},
		{"m/0", DerivationPath{0}},
		{"m/44'/60'/0'/0/0", DerivationPath{Hardened(44), Hardened(60), Hardened(0), 0, 0}},
		{"m/44h/501H/0'/0'/7'", DerivationPath{Hardened(44), Hardened(501), Hardened(0), Hardened(0), Hardened(7)}},
		{"m/2147483647'", DerivationPath{Hardened(2147483647)}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if err != nil {
				t.Fatalf("ParsePath() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("component %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParsePath_Malformed(t *testing.T) {
	tests := []string{
		"",
		"44'/60'",
		"x/44'",
		"m/",
		"m//0",
		"m/abc",
		"m/-1",
		"m/+1",
		"m/'",
		"m/2147483648",
		"m/4294967296",
		"m/1''",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePath(in)
			if !errors.Is(err, ErrMalformedPath) {
				t.Errorf("ParsePath(%q) error = %v, want ErrMalformedPath", in, err)
			}
		})
	}
}

func TestDerivationPath_StringRoundtrip(t *testing.T) {
	for _, s := range []string{"m", "m/44'/60'/0'/0/5", "m/44'/501'/0'/0'/3'"} {
		p := MustParsePath(s)
		if p.String() != s {
			t.Errorf("String() = %q, want %q", p.String(), s)
		}
	}

	// Alternative hardened markers normalize to '.
	if got := MustParsePath("m/44h/0H").String(); got != "m/44'/0'" {
		t.Errorf("String() = %q, want m/44'/0'", got)
	}
}

func TestAccountPath(t *testing.T) {
	tests := []struct {
		family  Family
		coin    Coin
		network Network
		want    string
	}{
		{EVM, "", Mainnet, "m/44'/60'/0'/0/3"},
		{BitcoinLike, CoinBTC, Mainnet, "m/44'/0'/0'/0/3"},
		{BitcoinLike, CoinLTC, Mainnet, "m/44'/2'/0'/0/3"},
		{BitcoinLike, CoinBTC, Testnet, "m/44'/1'/0'/0/3"},
		{Solana, "", Mainnet, "m/44'/501'/0'/0'/3'"},
		{Tron, "", Mainnet, "m/44'/195'/0'/0/3"},
		{XRP, "", Mainnet, "m/44'/144'/0'/0/3"},
		{TON, "", Mainnet, "m/44'/607'/0'/0/3"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p, err := AccountPath(tt.family, tt.coin, tt.network, 3)
			if err != nil {
				t.Fatalf("AccountPath() error: %v", err)
			}
			if p.String() != tt.want {
				t.Errorf("AccountPath() = %s, want %s", p, tt.want)
			}
			if p.AccountIndex() != 3 {
				t.Errorf("AccountIndex() = %d, want 3", p.AccountIndex())
			}
		})
	}
}

func TestAccountPath_SolanaFullyHardened(t *testing.T) {
	p, err := AccountPath(Solana, "", Mainnet, 0)
	if err != nil {
		t.Fatalf("AccountPath() error: %v", err)
	}
	if !p.FullyHardened() {
		t.Error("solana path should be fully hardened")
	}

	evm, _ := AccountPath(EVM, "", Mainnet, 0)
	if evm.FullyHardened() {
		t.Error("EVM path should have unhardened change/index steps")
	}
}

func TestAccountPath_IndexOutOfRange(t *testing.T) {
	if _, err := AccountPath(EVM, "", Mainnet, HardenedOffset); err == nil {
		t.Error("expected error for hardened account index")
	}
}
