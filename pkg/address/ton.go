package address

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/sigurn/crc16"

	"github.com/Klingon-tech/klingnet-keyring/pkg/chain"
	"github.com/Klingon-tech/klingnet-keyring/pkg/crypto"
)

// TON user-friendly address flags.
const (
	tonFlagBounceable    byte = 0x11
	tonFlagNonBounceable byte = 0x51
	tonFlagTestOnly      byte = 0x80
)

const tonAddressLen = 36

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

type tonEncoder struct {
	workchain   int8
	bounceable  bool
	testnetOnly bool
}

func (e *tonEncoder) Family() chain.Family { return chain.TON }

// Encode builds flag || workchain || sha256(pub) || crc16 and returns it as
// unpadded base64url.
func (e *tonEncoder) Encode(pub []byte) (string, error) {
	compressed, err := compressedKey(chain.TON, pub)
	if err != nil {
		return "", err
	}

	flag := tonFlagBounceable
	if !e.bounceable {
		flag = tonFlagNonBounceable
	}
	if e.testnetOnly {
		flag |= tonFlagTestOnly
	}

	buf := make([]byte, tonAddressLen)
	buf[0] = flag
	buf[1] = byte(e.workchain)
	copy(buf[2:34], crypto.SHA256(compressed))
	binary.BigEndian.PutUint16(buf[34:], crc16.Checksum(buf[:34], crcTable))
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IsWellFormed accepts bounceable and non-bounceable forms of any workchain.
// The test-only bit must match the configured network.
func (e *tonEncoder) IsWellFormed(s string) bool {
	if len(s) != 48 {
		return false
	}
	buf, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(buf) != tonAddressLen {
		return false
	}
	if (buf[0]&tonFlagTestOnly != 0) != e.testnetOnly {
		return false
	}
	switch buf[0] &^ tonFlagTestOnly {
	case tonFlagBounceable, tonFlagNonBounceable:
	default:
		return false
	}
	return binary.BigEndian.Uint16(buf[34:]) == crc16.Checksum(buf[:34], crcTable)
}
