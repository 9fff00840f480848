// ABOUTME: Authenticated encryption for cookie payloads
// ABOUTME: XChaCha20-Poly1305 with an HKDF-derived key; output is base64url(nonce||ciphertext)

package services

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	sealerSalt = "drive-ogan-ilir/session"
	sealerInfo = "cookie-aead-v1"
)

// ErrInvalidSealedValue is returned for any value that does not open:
// bad encoding, truncated input, wrong key, wrong associated data or tampering.
var ErrInvalidSealedValue = errors.New("invalid sealed value")

// Sealer seals and opens opaque cookie values.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 256-bit key from secret with HKDF-SHA256.
func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, errors.New("sealer secret must not be empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, secret, []byte(sealerSalt), []byte(sealerInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive sealing key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewRandomSealer uses a fresh random key. Values sealed with it do not
// survive a process restart.
func NewRandomSealer() (*Sealer, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return NewSealer(secret)
}

// Seal encrypts plaintext and authenticates it together with ad.
func (s *Sealer) Seal(plaintext, ad []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, plaintext, ad)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Every failure maps to ErrInvalidSealedValue.
func (s *Sealer) Open(value string, ad []byte) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidSealedValue
	}
	if len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, ErrInvalidSealedValue
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, ErrInvalidSealedValue
	}
	return plaintext, nil
}
