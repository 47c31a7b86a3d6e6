package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Vault encrypts OAuth tokens at rest with AES-256-GCM. Ciphertexts are
// stored as colon-delimited hex: iv:tag:ciphertext, with a random 128-bit IV
// per call and a 128-bit auth tag.
type Vault struct {
	aead cipher.AEAD
}

var ErrCipherFormat = errors.New("malformed ciphertext")

func NewVault(key []byte) (*Vault, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("vault key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, 16)
	if err != nil {
		return nil, err
	}
	return &Vault{aead: aead}, nil
}

// NewVaultFromHex builds a vault from a hex-encoded 256-bit key, the form the
// key takes in configuration.
func NewVaultFromHex(hexKey string) (*Vault, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("invalid vault key: %w", err)
	}
	return NewVault(key)
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	sealed := v.aead.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(sealed) - v.aead.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext)), nil
}

// Decrypt rejects any ciphertext whose auth tag does not verify, so a
// tampered row fails loudly rather than yielding garbage.
func (v *Vault) Decrypt(encoded string) (string, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return "", ErrCipherFormat
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != v.aead.NonceSize() {
		return "", ErrCipherFormat
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != v.aead.Overhead() {
		return "", ErrCipherFormat
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrCipherFormat
	}

	plaintext, err := v.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}
