package wallet

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-keyring/internal/log"
)

// fastParams returns low-cost Argon2 params for fast tests.
func fastParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64, // 64 KiB (minimal)
		Iterations:  1,
		Parallelism: 1,
	}
}

func TestEncryptDecrypt_Roundtrip(t *testing.T) {
	plaintext := []byte("secret wallet data")
	password := []byte("strong-password-123")

	encrypted, err := Encrypt(plaintext, password, fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	decrypted, err := Decrypt(encrypted, password)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}

	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestEncryptDecrypt_EmptyData(t *testing.T) {
	encrypted, err := Encrypt([]byte{}, []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	decrypted, err := Decrypt(encrypted, []byte("pass"))
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}

	if len(decrypted) != 0 {
		t.Errorf("decrypted empty data should be empty, got %d bytes", len(decrypted))
	}
}

func TestEncryptDecrypt_LargeData(t *testing.T) {
	plaintext := make([]byte, 10000)
	for i := range plaintext {
		plaintext[i] = byte(i % 256)
	}

	encrypted, err := Encrypt(plaintext, []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	decrypted, err := Decrypt(encrypted, []byte("pass"))
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}

	if !bytes.Equal(decrypted, plaintext) {
		t.Error("large data roundtrip failed")
	}
}

func TestDecrypt_WrongPassword(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret data"), []byte("correct"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	for _, pw := range []string{"wrong", "", "correct ", "Correct"} {
		plaintext, err := Decrypt(encrypted, []byte(pw))
		if !errors.Is(err, ErrInvalidPassword) {
			t.Errorf("Decrypt(%q) error = %v, want ErrInvalidPassword", pw, err)
		}
		if plaintext != nil {
			t.Errorf("Decrypt(%q) returned plaintext on failure", pw)
		}
	}
}

func TestDecrypt_Malformed(t *testing.T) {
	good, err := Encrypt([]byte("data"), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(ct *Ciphertext)
	}{
		{"corrupted tag", func(ct *Ciphertext) { ct.Tag[0] ^= 0xFF }},
		{"corrupted data", func(ct *Ciphertext) { ct.Data[0] ^= 0xFF }},
		{"corrupted salt", func(ct *Ciphertext) { ct.Salt[0] ^= 0xFF }},
		{"short nonce", func(ct *Ciphertext) { ct.Nonce = ct.Nonce[:12] }},
		{"missing tag", func(ct *Ciphertext) { ct.Tag = nil }},
		{"zero iterations", func(ct *Ciphertext) { ct.KDF.Iterations = 0 }},
		{"huge memory", func(ct *Ciphertext) { ct.KDF.Memory = 1 << 31 }},
		{"changed params", func(ct *Ciphertext) { ct.KDF.Iterations = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := cloneCiphertext(good)
			tt.mutate(ct)
			if _, err := Decrypt(ct, []byte("pass")); !errors.Is(err, ErrInvalidPassword) {
				t.Errorf("Decrypt() error = %v, want ErrInvalidPassword", err)
			}
		})
	}

	if _, err := Decrypt(nil, []byte("pass")); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Decrypt(nil) error = %v, want ErrInvalidPassword", err)
	}
}

// countKDF replaces the key derivation with a cheap recorder for the
// duration of the test.
func countKDF(t *testing.T) *[]EncryptionParams {
	t.Helper()
	var calls []EncryptionParams
	orig := kdf
	kdf = func(password, salt []byte, params EncryptionParams) []byte {
		calls = append(calls, params)
		return make([]byte, 32)
	}
	t.Cleanup(func() { kdf = orig })
	return &calls
}

func TestDecrypt_EveryFailureRunsKDF(t *testing.T) {
	good, err := Encrypt([]byte("data"), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	flat, err := good.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error: %v", err)
	}

	tests := []struct {
		name    string
		decrypt func() error
		want    EncryptionParams
	}{
		{"wrong password", func() error {
			_, err := Decrypt(good, []byte("wrong"))
			return err
		}, fastParams()},
		{"short salt", func() error {
			ct := cloneCiphertext(good)
			ct.Salt = ct.Salt[:8]
			_, err := Decrypt(ct, []byte("pass"))
			return err
		}, fastParams()},
		{"missing tag", func() error {
			ct := cloneCiphertext(good)
			ct.Tag = nil
			_, err := Decrypt(ct, []byte("pass"))
			return err
		}, fastParams()},
		{"kdf out of range", func() error {
			ct := cloneCiphertext(good)
			ct.KDF.Parallelism = 0
			_, err := Decrypt(ct, []byte("pass"))
			return err
		}, DefaultParams()},
		{"nil", func() error {
			_, err := Decrypt(nil, []byte("pass"))
			return err
		}, DefaultParams()},
		{"truncated bytes", func() error {
			_, err := DecryptBytes(flat[:20], []byte("pass"))
			return err
		}, DefaultParams()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := countKDF(t)
			if err := tt.decrypt(); !errors.Is(err, ErrInvalidPassword) {
				t.Fatalf("error = %v, want ErrInvalidPassword", err)
			}
			if len(*calls) != 1 {
				t.Fatalf("key derivations = %d, want 1", len(*calls))
			}
			if (*calls)[0] != tt.want {
				t.Errorf("derivation params = %+v, want %+v", (*calls)[0], tt.want)
			}
		})
	}
}

func TestDecrypt_LogsWithoutSecrets(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf, "debug")
	defer log.SetOutput(&bytes.Buffer{}, "disabled")

	good, err := Encrypt([]byte("mnemonic words"), []byte("hunter2"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if _, err := Decrypt(good, []byte("hunter3")); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("Decrypt() error = %v", err)
	}
	countKDF(t)
	bad := cloneCiphertext(good)
	bad.Nonce = nil
	if _, err := Decrypt(bad, []byte("hunter2")); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("Decrypt(malformed) error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"component":"vault"`) {
		t.Errorf("no vault log lines:\n%s", out)
	}
	for _, secret := range []string{"hunter", "mnemonic words"} {
		if strings.Contains(out, secret) {
			t.Errorf("log output contains %q", secret)
		}
	}
}

func cloneCiphertext(ct *Ciphertext) *Ciphertext {
	return &Ciphertext{
		KDF:   ct.KDF,
		Salt:  append([]byte(nil), ct.Salt...),
		Nonce: append([]byte(nil), ct.Nonce...),
		Data:  append([]byte(nil), ct.Data...),
		Tag:   append([]byte(nil), ct.Tag...),
	}
}

func TestEncrypt_DifferentEachTime(t *testing.T) {
	plaintext := []byte("same data")
	password := []byte("same pass")

	enc1, err := EncryptBytes(plaintext, password, fastParams())
	if err != nil {
		t.Fatalf("EncryptBytes() error: %v", err)
	}
	enc2, err := EncryptBytes(plaintext, password, fastParams())
	if err != nil {
		t.Fatalf("EncryptBytes() error: %v", err)
	}

	if bytes.Equal(enc1, enc2) {
		t.Error("encrypting same data twice should produce different output (random salt/nonce)")
	}

	// Both should still decrypt correctly
	d1, _ := DecryptBytes(enc1, password)
	d2, _ := DecryptBytes(enc2, password)
	if !bytes.Equal(d1, plaintext) || !bytes.Equal(d2, plaintext) {
		t.Error("both encryptions should decrypt to same plaintext")
	}
}

func TestEncrypt_OutputFormat(t *testing.T) {
	plaintext := []byte("test")

	encrypted, err := EncryptBytes(plaintext, []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("EncryptBytes() error: %v", err)
	}

	// header(41) + nonce(24) + ciphertext(len(plaintext)) + tag(16)
	want := headerSize + NonceSize + len(plaintext) + TagSize
	if len(encrypted) != want {
		t.Errorf("encrypted length = %d, want %d", len(encrypted), want)
	}

	var ct Ciphertext
	if err := ct.UnmarshalBinary(encrypted); err != nil {
		t.Fatalf("UnmarshalBinary() error: %v", err)
	}
	if ct.KDF != fastParams() {
		t.Errorf("KDF = %+v, want %+v", ct.KDF, fastParams())
	}
	if len(ct.Data) != len(plaintext) || len(ct.Tag) != TagSize {
		t.Errorf("data %d bytes, tag %d bytes", len(ct.Data), len(ct.Tag))
	}
}

func TestDecryptBytes_TruncatedData(t *testing.T) {
	if _, err := DecryptBytes([]byte("too short"), []byte("pass")); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("DecryptBytes() error = %v, want ErrInvalidPassword", err)
	}
}

func TestCiphertext_JSON(t *testing.T) {
	ct, err := Encrypt([]byte("mnemonic words"), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	data, err := json.Marshal(ct)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	for _, k := range []string{"kdf", "salt", "nonce", "ciphertext", "tag"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("JSON missing field %q", k)
		}
	}

	var back Ciphertext
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	plaintext, err := Decrypt(&back, []byte("pass"))
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if string(plaintext) != "mnemonic words" {
		t.Errorf("plaintext = %q", plaintext)
	}
}

func TestEncrypt_InvalidParams(t *testing.T) {
	if _, err := Encrypt([]byte("x"), []byte("pass"), EncryptionParams{}); err == nil {
		t.Error("Encrypt() with zero params should fail")
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Memory != 64*1024 {
		t.Errorf("Memory = %d, want %d", p.Memory, 64*1024)
	}
	if p.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", p.Iterations)
	}
	if p.Parallelism != 4 {
		t.Errorf("Parallelism = %d, want 4", p.Parallelism)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}
