package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNewService(t *testing.T) {
	t.Run("should accept a 64-hex-character key", func(t *testing.T) {
		svc, err := NewService(testKey)

		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("should reject non-hex key", func(t *testing.T) {
		_, err := NewService(strings.Repeat("zz", 32))

		assert.Error(t, err)
	})

	t.Run("should reject short key", func(t *testing.T) {
		_, err := NewService("0011223344")

		assert.Error(t, err)
	})
}

func TestService_EncryptDecrypt(t *testing.T) {
	svc, err := NewService(testKey)
	require.NoError(t, err)

	t.Run("should round-trip a payload", func(t *testing.T) {
		plaintext := []byte(`{"summary":"Budget approved","actions":["notify team"]}`)

		ciphertext, err := svc.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, ciphertext)

		decrypted, err := svc.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("should produce distinct ciphertexts for the same plaintext", func(t *testing.T) {
		plaintext := []byte("same input")

		first, err := svc.Encrypt(plaintext)
		require.NoError(t, err)
		second, err := svc.Encrypt(plaintext)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("should reject tampered ciphertext", func(t *testing.T) {
		ciphertext, err := svc.Encrypt([]byte("sensitive"))
		require.NoError(t, err)

		ciphertext[len(ciphertext)-1] ^= 0xff

		_, err = svc.Decrypt(ciphertext)
		assert.Error(t, err)
	})

	t.Run("should reject truncated ciphertext", func(t *testing.T) {
		_, err := svc.Decrypt([]byte("too short"))

		assert.Error(t, err)
	})

	t.Run("should reject ciphertext from a different key", func(t *testing.T) {
		other, err := NewService(strings.Repeat("ff", 32))
		require.NoError(t, err)

		ciphertext, err := other.Encrypt([]byte("foreign payload"))
		require.NoError(t, err)

		_, err = svc.Decrypt(ciphertext)
		assert.Error(t, err)
	})
}
