package address

import (
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
	"github.com/Klingon-tech/klingnet-keyring/pkg/crypto"
)

// LitecoinMainNetParams holds the Litecoin mainnet address prefixes.
var LitecoinMainNetParams = chaincfg.Params{
	Name:                    "litecoin",
	Net:                     wire.BitcoinNet(0xdbb6c0fb),
	PubKeyHashAddrID:        0x30, // L
	ScriptHashAddrID:        0x32, // M
	PrivateKeyID:            0xb0,
	WitnessPubKeyHashAddrID: 0x06,
	WitnessScriptHashAddrID: 0x0a,
	Bech32HRPSegwit:         "ltc",
	HDPrivateKeyID:          [4]byte{0x04, 0x88, 0xad, 0xe4},
	HDPublicKeyID:           [4]byte{0x04, 0x88, 0xb2, 0x1e},
	HDCoinType:              chain.CoinTypeLitecoin,
}

// LitecoinTestNetParams holds the Litecoin testnet4 address prefixes.
var LitecoinTestNetParams = chaincfg.Params{
	Name:                    "litecoin-testnet4",
	Net:                     wire.BitcoinNet(0xf1c8d2fd),
	PubKeyHashAddrID:        0x6f, // m or n
	ScriptHashAddrID:        0x3a, // Q
	PrivateKeyID:            0xef,
	WitnessPubKeyHashAddrID: 0x52,
	WitnessScriptHashAddrID: 0x31,
	Bech32HRPSegwit:         "tltc",
	HDPrivateKeyID:          [4]byte{0x04, 0x35, 0x83, 0x94},
	HDPublicKeyID:           [4]byte{0x04, 0x35, 0x87, 0xcf},
	HDCoinType:              chain.CoinTypeTestnet,
}

var registerOnce sync.Once

// registerLitecoin makes the Litecoin HRPs and version bytes known to
// btcutil.DecodeAddress.
func registerLitecoin() {
	registerOnce.Do(func() {
		for _, p := range []*chaincfg.Params{&LitecoinMainNetParams, &LitecoinTestNetParams} {
			if err := chaincfg.Register(p); err != nil && !errors.Is(err, chaincfg.ErrDuplicateNet) {
				panic(fmt.Sprintf("register %s params: %v", p.Name, err))
			}
		}
	})
}

// NetParams returns the btcd parameters for a BITCOIN_LIKE coin and network.
func NetParams(coin chain.Coin, network chain.Network) (*chaincfg.Params, error) {
	switch coin {
	case chain.CoinBTC, "":
		if network == chain.Testnet {
			return &chaincfg.TestNet3Params, nil
		}
		return &chaincfg.MainNetParams, nil
	case chain.CoinLTC:
		registerLitecoin()
		if network == chain.Testnet {
			return &LitecoinTestNetParams, nil
		}
		return &LitecoinMainNetParams, nil
	default:
		return nil, fmt.Errorf("unknown coin %q", coin)
	}
}

type bitcoinEncoder struct {
	net  *chaincfg.Params
	kind BitcoinAddressType
}

func newBitcoinEncoder(p Params) (*bitcoinEncoder, error) {
	net, err := NetParams(p.Coin, p.Network)
	if err != nil {
		return nil, &EncodingError{Family: chain.BitcoinLike, Err: err}
	}
	kind, err := ParseBitcoinAddressType(string(p.BitcoinType))
	if err != nil {
		return nil, &EncodingError{Family: chain.BitcoinLike, Err: err}
	}
	return &bitcoinEncoder{net: net, kind: kind}, nil
}

func (e *bitcoinEncoder) Family() chain.Family { return chain.BitcoinLike }

func (e *bitcoinEncoder) Encode(pub []byte) (string, error) {
	compressed, err := compressedKey(chain.BitcoinLike, pub)
	if err != nil {
		return "", err
	}
	pkHash := crypto.Hash160(compressed)

	var addr btcutil.Address
	switch e.kind {
	case BitcoinLegacy:
		addr, err = btcutil.NewAddressPubKeyHash(pkHash, e.net)
	case BitcoinP2SHSegwit:
		var script []byte
		script, err = witnessScript(pkHash)
		if err == nil {
			addr, err = btcutil.NewAddressScriptHash(script, e.net)
		}
	case BitcoinSegwit:
		addr, err = btcutil.NewAddressWitnessPubKeyHash(pkHash, e.net)
	default:
		err = ErrInvalidAddressType
	}
	if err != nil {
		return "", &EncodingError{Family: chain.BitcoinLike, Err: err}
	}
	return addr.EncodeAddress(), nil
}

// witnessScript builds the version 0 witness program OP_0 <20-byte hash>.
func witnessScript(pkHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(pkHash).
		Script()
}

// IsWellFormed accepts P2PKH, P2SH and P2WPKH addresses of the configured
// coin and network, regardless of the encoder's default address type.
func (e *bitcoinEncoder) IsWellFormed(s string) bool {
	addr, err := btcutil.DecodeAddress(s, e.net)
	if err != nil {
		return false
	}
	if !addr.IsForNet(e.net) {
		return false
	}
	switch addr.(type) {
	case *btcutil.AddressPubKeyHash, *btcutil.AddressScriptHash, *btcutil.AddressWitnessPubKeyHash:
		return true
	default:
		return false
	}
}
