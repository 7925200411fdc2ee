package tokenstore

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(bytes.Repeat([]byte{7}, KeySize))
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("token-value"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "token-value")

	again, err := s.Seal([]byte("token-value"))
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonces must differ")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "token-value", string(plain))
}

func TestSealer_Errors(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	s, err := NewSealerFromString(strings.Repeat("ab", KeySize))
	require.NoError(t, err)

	_, err = s.Open([]byte("tiny"))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	sealed, err := s.Seal([]byte("v"))
	require.NoError(t, err)
	other, err := NewSealerFromString("different passphrase")
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.Error(t, err)
}

func TestSealer_Passphrase(t *testing.T) {
	s, err := NewSealerFromString("correct horse battery staple")
	require.NoError(t, err)
	require.Nil(t, s.key)

	first, err := s.Seal([]byte("token-value"))
	require.NoError(t, err)
	second, err := s.Seal([]byte("token-value"))
	require.NoError(t, err)
	assert.NotEqual(t, first[:SaltSize], second[:SaltSize], "each value gets its own salt")

	plain, err := s.Open(second)
	require.NoError(t, err)
	assert.Equal(t, "token-value", string(plain))

	// a fresh sealer with the same passphrase reads values sealed earlier
	reopened, err := NewPassphraseSealer("correct horse battery staple")
	require.NoError(t, err)
	plain, err = reopened.Open(first)
	require.NoError(t, err)
	assert.Equal(t, "token-value", string(plain))

	wrong, err := NewPassphraseSealer("incorrect horse")
	require.NoError(t, err)
	_, err = wrong.Open(first)
	assert.Error(t, err)

	_, err = s.Open(first[:SaltSize-1])
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	_, err = NewPassphraseSealer("")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestDeriveKey(t *testing.T) {
	passphrase := []byte("correct horse battery staple")
	saltA := bytes.Repeat([]byte{1}, SaltSize)
	saltB := bytes.Repeat([]byte{2}, SaltSize)

	keyA := deriveKey(passphrase, saltA)
	assert.Len(t, keyA, KeySize)
	assert.Equal(t, keyA, deriveKey(passphrase, saltA))
	assert.NotEqual(t, keyA, deriveKey(passphrase, saltB))
	assert.NotEqual(t, keyA, deriveKey([]byte("other"), saltA))
}
