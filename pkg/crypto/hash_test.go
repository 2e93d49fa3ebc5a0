package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func TestHash(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "empty input",
			input: []byte{},
			want:  "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
		},
		{
			name:  "hello",
			input: []byte("hello"),
			want:  "ea8f163db38682925e4491c5e58d4bb3506ef8c14eb78a86e908c5624a67200f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hash(tt.input)
			if !bytes.Equal(got[:], mustHex(t, tt.want)) {
				t.Errorf("Hash(%q) = %x, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestHash_MultiPartEqualsConcat(t *testing.T) {
	a := Hash([]byte("wallet"), []byte("/"), []byte("id"))
	b := Hash([]byte("wallet/id"))
	if a != b {
		t.Errorf("multi-part hash %x != concatenated hash %x", a, b)
	}
}

func TestKnownDigests(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{"keccak256 empty", Keccak256(nil), "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"sha256 empty", SHA256(nil), "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"double sha256 hello", DoubleSHA256([]byte("hello")), "9595c9df90075148eb06860365df33584b75bff782a510c6cd4883a419833d50"},
		{"sha512half empty", SHA512Half(nil), "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got, mustHex(t, tt.want)) {
				t.Errorf("digest = %x, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestHash160_GeneratorPoint(t *testing.T) {
	// Compressed secp256k1 generator point, BIP-173 example program.
	pub := mustHex(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	want := mustHex(t, "751e76e8199196d454941c45d1b3a323f1433bd6")
	if got := Hash160(pub); !bytes.Equal(got, want) {
		t.Errorf("Hash160() = %x, want %x", got, want)
	}
}

func TestChecksum4(t *testing.T) {
	data := []byte("hello")
	if got := Checksum4(data); !bytes.Equal(got, DoubleSHA256(data)[:4]) {
		t.Errorf("Checksum4() = %x", got)
	}
}
