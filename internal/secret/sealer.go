// Package secret seals model api keys before they are persisted.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const prefix = "sealed:v1:"

var ErrMalformed = errors.New("secret: malformed sealed value")

// Sealer encrypts short strings with XChaCha20-Poly1305.
type Sealer struct {
	key []byte
}

// NewSealer accepts a 32-byte key as hex or base64. Any other value is
// treated as a passphrase and stretched with HKDF-SHA256.
func NewSealer(key string) (*Sealer, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("secret: empty key")
	}
	if b, err := hex.DecodeString(key); err == nil && len(b) == chacha20poly1305.KeySize {
		return &Sealer{key: b}, nil
	}
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == chacha20poly1305.KeySize {
		return &Sealer{key: b}, nil
	}

	derived := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(key), nil, []byte("attackforge api keys"))
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, fmt.Errorf("secret: derive key: %w", err)
	}
	return &Sealer{key: derived}, nil
}

// Seal is idempotent: already sealed values are returned unchanged.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if strings.HasPrefix(plaintext, prefix) {
		return plaintext, nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open returns values without the sealed prefix as-is, so records written
// before sealing was enabled stay readable.
func (s *Sealer) Open(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, prefix) {
		return sealed, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, prefix))
	if err != nil {
		return "", ErrMalformed
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrMalformed
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secret: open: %w", err)
	}
	return string(pt), nil
}
