// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// sealSalt domain-separates the jar key from any other key derived from the
// same secret. The jar must stay readable across restarts, so it is fixed.
const sealSalt = "go-auth-keeper/cookie-jar/v1"

var (
	// ErrEmptySecret is returned by [NewSealer] for an empty secret.
	ErrEmptySecret = errors.New("seal secret is empty")
	// ErrSealedTooShort is returned by Open when the blob is shorter than
	// a nonce.
	ErrSealedTooShort = errors.New("sealed value too short")
)

// sealer is the private implementation of [Sealer].
type sealer struct {
	aead cipher.AEAD

	// Argon2id tuning parameters, kept for tests and diagnostics.
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
}

// NewSealer derives a 256-bit key from secret with Argon2id using the
// OWASP minimum profile (2 iterations, 19 MiB, 1 thread) and returns a
// [Sealer] backed by XChaCha20-Poly1305.
func NewSealer(secret string) (Sealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	s := &sealer{
		argonTime:    2,
		argonMemory:  19 * 1024, // 19 MiB
		argonThreads: 1,
	}

	key := argon2.IDKey([]byte(secret), []byte(sealSalt), s.argonTime, s.argonMemory, s.argonThreads, chacha20poly1305.KeySize)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create aead: %w", err)
	}
	s.aead = aead

	return s, nil
}

// Seal implements [Sealer]. A fresh random 24-byte nonce is prepended to
// the ciphertext.
func (s *sealer) Seal(plain string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	blob := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Open implements [Sealer].
func (s *sealer) Open(sealed string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(blob) < nonceSize {
		return "", ErrSealedTooShort
	}

	plain, err := s.aead.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}

	return string(plain), nil
}
