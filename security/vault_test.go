package security

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testVault(t *testing.T) *Vault {
	t.Helper()
	v, err := NewVault(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}
	return v
}

func TestVaultRoundTrip(t *testing.T) {
	v := testVault(t)

	for _, plaintext := range []string{
		"",
		"refresh-token-AB1…£∆",
		strings.Repeat("x", 4096),
	} {
		encoded, err := v.Encrypt(plaintext)
		assert.NoError(t, err)

		parts := strings.Split(encoded, ":")
		assert.Len(t, parts, 3)
		assert.Len(t, parts[0], 32) // 128-bit IV in hex
		assert.Len(t, parts[1], 32) // 128-bit tag in hex

		decoded, err := v.Decrypt(encoded)
		assert.NoError(t, err)
		assert.Equal(t, plaintext, decoded)
	}
}

func TestVaultUniqueIVs(t *testing.T) {
	v := testVault(t)

	a, err := v.Encrypt("same input")
	assert.NoError(t, err)
	b, err := v.Encrypt("same input")
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVaultTamperDetection(t *testing.T) {
	v := testVault(t)

	encoded, err := v.Encrypt("access-token")
	assert.NoError(t, err)

	parts := strings.Split(encoded, ":")
	tag, _ := hex.DecodeString(parts[1])
	tag[0] ^= 0x01
	parts[1] = hex.EncodeToString(tag)

	_, err = v.Decrypt(strings.Join(parts, ":"))
	assert.Error(t, err)
}

func TestVaultRejectsMalformedInput(t *testing.T) {
	v := testVault(t)

	for _, encoded := range []string{
		"",
		"deadbeef",
		"aa:bb",
		"zz:zz:zz",
	} {
		_, err := v.Decrypt(encoded)
		assert.Error(t, err)
	}
}

func TestNewVaultKeySize(t *testing.T) {
	_, err := NewVault([]byte("short"))
	assert.Error(t, err)

	_, err = NewVaultFromHex(hex.EncodeToString(bytes.Repeat([]byte{7}, 32)))
	assert.NoError(t, err)
}
