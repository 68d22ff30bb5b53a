// Package redact hides account numbers, phone numbers and similar
// identifiers before they are logged.
package redact

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	visibleDigits = 4
	sealedPrefix  = "enc:"
)

var (
	ErrInvalidKey    = fmt.Errorf("redaction key must be %d bytes", chacha20poly1305.KeySize)
	ErrNotSealed     = errors.New("value was not sealed by this redactor")
	ErrSealedCorrupt = errors.New("sealed value is corrupt or was sealed with another key")
)

// Masker keeps the last four characters of a value and stars out the rest.
// Values of four characters or fewer are hidden entirely.
type Masker struct{}

func (Masker) Redact(value string) string {
	n := utf8.RuneCountInString(value)
	if n <= visibleDigits {
		return strings.Repeat("*", visibleDigits)
	}
	runes := []rune(value)
	return strings.Repeat("*", visibleDigits) + string(runes[n-visibleDigits:])
}

// Name reduces a person's name to its initial, e.g. "Alice" to "A.".
func Name(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(r) + "."
}

// Sealer encrypts values with XChaCha20-Poly1305 so operators holding the key
// can recover them from logs. The same value seals to a different string
// every time.
type Sealer struct {
	key []byte
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Sealer{key: k}, nil
}

// NewSealerFromHex parses a hex-encoded 32-byte key.
func NewSealerFromHex(hexKey string) (*Sealer, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("decode redaction key: %w", err)
	}
	return NewSealer(key)
}

// Redact seals value. If sealing fails the value is masked instead, so the
// raw value never leaks.
func (s *Sealer) Redact(value string) string {
	sealed, err := s.Seal(value)
	if err != nil {
		return Masker{}.Redact(value)
	}
	return sealed
}

func (s *Sealer) Seal(value string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := aead.Seal(nonce, nonce, []byte(value), nil)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open recovers a value produced by Seal or Redact.
func (s *Sealer) Open(sealed string) (string, error) {
	encoded, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", ErrNotSealed
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrSealedCorrupt
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(data) < aead.NonceSize()+aead.Overhead() {
		return "", ErrSealedCorrupt
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrSealedCorrupt
	}
	return string(plain), nil
}
