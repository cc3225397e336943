package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const sealedPrefix = "sb1:"

var ErrUnseal = errors.New("cannot unseal value")

// Sealer encrypts short secrets (OAuth tokens) before they hit the database.
// A nil Sealer passes values through unchanged.
type Sealer struct {
	key [32]byte
}

// NewSealer parses a hex encoded 32 byte key. An empty key disables sealing.
func NewSealer(hexKey string) (*Sealer, error) {
	if hexKey == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode token key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("token key must be 32 bytes, got %d", len(raw))
	}
	s := &Sealer{}
	copy(s.key[:], raw)
	return s, nil
}

func (s *Sealer) Seal(plain string) (string, error) {
	if s == nil || plain == "" {
		return plain, nil
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Values written before sealing was enabled are returned as is.
func (s *Sealer) Open(value string) (string, error) {
	if s == nil || len(value) < len(sealedPrefix) || value[:len(sealedPrefix)] != sealedPrefix {
		return value, nil
	}
	raw, err := base64.StdEncoding.DecodeString(value[len(sealedPrefix):])
	if err != nil || len(raw) < 24 {
		return "", ErrUnseal
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &s.key)
	if !ok {
		return "", ErrUnseal
	}
	return string(plain), nil
}
