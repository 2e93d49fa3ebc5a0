package wallet

import (
	"fmt"

	slip10 "github.com/anyproto/go-slip10"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
)

// deriveEd25519 walks a fully hardened SLIP-0010 path from the seed.
func deriveEd25519(seed []byte, path chain.DerivationPath) (*KeyMaterial, error) {
	for i, idx := range path {
		if !chain.IsHardened(idx) {
			return nil, fmt.Errorf("%w: ed25519 step %d (%d) must be hardened", ErrCurveMismatch, i+1, idx)
		}
	}

	node, err := slip10.NewMasterNode(seed)
	if err != nil {
		return nil, fmt.Errorf("create ed25519 master: %w", err)
	}
	for _, idx := range path {
		node, err = node.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("derive ed25519 child %d: %w", idx, err)
		}
	}

	pub, _ := node.Keypair()
	return &KeyMaterial{
		Curve:      chain.CurveEd25519,
		PrivateKey: append([]byte(nil), node.RawSeed()...),
		PublicKey:  append([]byte(nil), pub...),
	}, nil
}
