package tokenstore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required sealing key size (256-bit).
const KeySize = chacha20poly1305.KeySize

// SaltSize is the length of the salt stored in front of values sealed with
// a passphrase.
const SaltSize = 16

// Argon2id parameters for passphrase keys.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var (
	ErrInvalidKeySize     = errors.New("sealing key must be 32 bytes")
	ErrCiphertextTooShort = errors.New("sealed value too short")
	ErrEmptyPassphrase    = errors.New("sealing passphrase is empty")
)

// Sealer encrypts token values at rest with XChaCha20-Poly1305.
// Output format: [24-byte nonce][ciphertext+tag]. Passphrase sealers derive
// a key per value with Argon2id and prefix the 16-byte salt.
type Sealer struct {
	key        []byte
	passphrase []byte

	mu   sync.Mutex
	keys map[string][]byte
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	keyCopy := make([]byte, KeySize)
	copy(keyCopy, key)
	return &Sealer{key: keyCopy}, nil
}

// NewSealerFromString accepts a 64 character hex key. Any other string is
// used as a passphrase.
func NewSealerFromString(s string) (*Sealer, error) {
	if len(s) == hex.EncodedLen(KeySize) {
		if key, err := hex.DecodeString(s); err == nil {
			return NewSealer(key)
		}
	}
	return NewPassphraseSealer(s)
}

func NewPassphraseSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	return &Sealer{
		passphrase: []byte(passphrase),
		keys:       make(map[string][]byte),
	}, nil
}

func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeySize)
}

// keyFor returns the derived key for salt, caching it so reloading the
// same rows does not rerun Argon2id.
func (s *Sealer) keyFor(salt []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := s.keys[string(salt)]; ok {
		return key
	}
	key := deriveKey(s.passphrase, salt)
	s.keys[string(salt)] = key
	return key
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return aead, nil
}

func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	key := s.key
	var prefix []byte
	if s.passphrase != nil {
		prefix = make([]byte, SaltSize)
		if _, err := rand.Read(prefix); err != nil {
			return nil, fmt.Errorf("generating salt: %w", err)
		}
		key = s.keyFor(prefix)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	out := append(prefix, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	key := s.key
	if s.passphrase != nil {
		if len(sealed) < SaltSize {
			return nil, ErrCiphertextTooShort
		}
		key = s.keyFor(sealed[:SaltSize])
		sealed = sealed[SaltSize:]
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonceSize := aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("opening sealed value: %w", err)
	}
	return plaintext, nil
}
