package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/Klingon-tech/klingnet-keyring/internal/log"
)

// Encryption constants.
const (
	SaltSize  = 32
	NonceSize = chacha20poly1305.NonceSizeX
	TagSize   = chacha20poly1305.Overhead
	// Encrypted format: [salt(32)][memory(4)][iterations(4)][parallelism(1)][nonce(24)][ciphertext...][tag(16)]
	headerSize = SaltSize + 4 + 4 + 1
)

// Argon2id bounds accepted when decrypting.
const (
	minMemory      = 8
	maxMemory      = 4 * 1024 * 1024 // 4 GiB
	maxIterations  = 64
	maxParallelism = 64
)

// ErrInvalidPassword is returned for every decryption failure, whether the
// password is wrong or the ciphertext is damaged.
var ErrInvalidPassword = errors.New("invalid password")

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 `json:"memory"` // in KiB
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
}

// DefaultParams returns recommended Argon2id parameters.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 4,
	}
}

// Validate checks the parameters against the accepted bounds.
func (p EncryptionParams) Validate() error {
	if p.Memory < minMemory || p.Memory > maxMemory {
		return fmt.Errorf("argon2 memory %d KiB out of range [%d, %d]", p.Memory, minMemory, maxMemory)
	}
	if p.Iterations == 0 || p.Iterations > maxIterations {
		return fmt.Errorf("argon2 iterations %d out of range [1, %d]", p.Iterations, maxIterations)
	}
	if p.Parallelism == 0 || p.Parallelism > maxParallelism {
		return fmt.Errorf("argon2 parallelism %d out of range [1, %d]", p.Parallelism, maxParallelism)
	}
	return nil
}

// Ciphertext is an encrypted secret with everything needed to decrypt it
// except the password.
type Ciphertext struct {
	KDF   EncryptionParams `json:"kdf"`
	Salt  []byte           `json:"salt"`
	Nonce []byte           `json:"nonce"`
	Data  []byte           `json:"ciphertext"`
	Tag   []byte           `json:"tag"`
}

// validate checks field lengths and KDF bounds.
func (ct *Ciphertext) validate() error {
	switch {
	case ct == nil:
		return errors.New("nil ciphertext")
	case len(ct.Salt) != SaltSize:
		return fmt.Errorf("salt is %d bytes, want %d", len(ct.Salt), SaltSize)
	case len(ct.Nonce) != NonceSize:
		return fmt.Errorf("nonce is %d bytes, want %d", len(ct.Nonce), NonceSize)
	case len(ct.Tag) != TagSize:
		return fmt.Errorf("tag is %d bytes, want %d", len(ct.Tag), TagSize)
	}
	return ct.KDF.Validate()
}

// kdf is the key derivation used by Encrypt and Decrypt.
var kdf = deriveKey

// deriveKey uses Argon2id to derive a 32-byte encryption key from password and salt.
func deriveKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(
		password,
		salt,
		params.Iterations,
		params.Memory,
		params.Parallelism,
		chacha20poly1305.KeySize,
	)
}

// Encrypt encrypts data with password using Argon2id + XChaCha20-Poly1305.
// Salt and nonce are fresh random values for every call.
func Encrypt(data, password []byte, params EncryptionParams) (*Ciphertext, error) {
	if err := params.Validate(); err != nil {
		log.Vault.Warn().Err(err).Msg("Rejected KDF parameters")
		return nil, err
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := kdf(password, salt, params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, data, nil)
	split := len(sealed) - TagSize

	return &Ciphertext{
		KDF:   params,
		Salt:  salt,
		Nonce: nonce,
		Data:  sealed[:split:split],
		Tag:   sealed[split:],
	}, nil
}

// Decrypt decrypts a Ciphertext produced by Encrypt. Any failure returns
// ErrInvalidPassword. A malformed ciphertext still runs one key derivation,
// so it is rejected no faster than a wrong password.
func Decrypt(ct *Ciphertext, password []byte) ([]byte, error) {
	if err := ct.validate(); err != nil {
		params := DefaultParams()
		if ct != nil && ct.KDF.Validate() == nil {
			params = ct.KDF
		}
		return nil, rejectMalformed(password, params, err)
	}

	key := kdf(password, ct.Salt, ct.KDF)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrInvalidPassword
	}

	sealed := make([]byte, 0, len(ct.Data)+TagSize)
	sealed = append(sealed, ct.Data...)
	sealed = append(sealed, ct.Tag...)

	plaintext, err := aead.Open(nil, ct.Nonce, sealed, nil)
	if err != nil {
		log.Vault.Debug().Int("ciphertext_len", len(ct.Data)).Msg("Ciphertext authentication failed")
		return nil, ErrInvalidPassword
	}
	return plaintext, nil
}

// rejectMalformed runs the key derivation over a zero salt and discards
// the result before returning ErrInvalidPassword.
func rejectMalformed(password []byte, params EncryptionParams, reason error) error {
	log.Vault.Warn().Err(reason).Msg("Malformed ciphertext rejected")
	zero(kdf(password, make([]byte, SaltSize), params))
	return ErrInvalidPassword
}

// MarshalBinary serializes the ciphertext as
// salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext | tag(16).
func (ct *Ciphertext) MarshalBinary() ([]byte, error) {
	if len(ct.Salt) != SaltSize || len(ct.Nonce) != NonceSize || len(ct.Tag) != TagSize {
		return nil, fmt.Errorf("malformed ciphertext")
	}
	out := make([]byte, 0, headerSize+NonceSize+len(ct.Data)+TagSize)
	out = append(out, ct.Salt...)
	out = binary.LittleEndian.AppendUint32(out, ct.KDF.Memory)
	out = binary.LittleEndian.AppendUint32(out, ct.KDF.Iterations)
	out = append(out, ct.KDF.Parallelism)
	out = append(out, ct.Nonce...)
	out = append(out, ct.Data...)
	out = append(out, ct.Tag...)
	return out, nil
}

// UnmarshalBinary parses the MarshalBinary layout.
func (ct *Ciphertext) UnmarshalBinary(b []byte) error {
	if len(b) < headerSize+NonceSize+TagSize {
		return fmt.Errorf("encrypted data too short: %d bytes, need at least %d", len(b), headerSize+NonceSize+TagSize)
	}
	ct.Salt = append([]byte(nil), b[:SaltSize]...)
	ct.KDF = EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(b[SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(b[SaltSize+4:]),
		Parallelism: b[SaltSize+8],
	}
	ct.Nonce = append([]byte(nil), b[headerSize:headerSize+NonceSize]...)
	body := b[headerSize+NonceSize:]
	ct.Data = append([]byte(nil), body[:len(body)-TagSize]...)
	ct.Tag = append([]byte(nil), body[len(body)-TagSize:]...)
	return nil
}

// EncryptBytes is Encrypt returning the flat MarshalBinary form.
func EncryptBytes(data, password []byte, params EncryptionParams) ([]byte, error) {
	ct, err := Encrypt(data, password, params)
	if err != nil {
		return nil, err
	}
	return ct.MarshalBinary()
}

// DecryptBytes decrypts the flat form produced by EncryptBytes.
func DecryptBytes(encrypted, password []byte) ([]byte, error) {
	var ct Ciphertext
	if err := ct.UnmarshalBinary(encrypted); err != nil {
		return nil, rejectMalformed(password, DefaultParams(), err)
	}
	return Decrypt(&ct, password)
}
