package kv

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/loanportal/portal-client/internal/core/ports"
)

const (
	sealedPrefix = "sealed:v1:"
	hkdfInfo     = "portal-client session slots"
)

var ErrEmptyKey = errors.New("sealed store: empty key")

// SealedStore encrypts every value with XChaCha20-Poly1305 before handing it
// to the wrapped store. The slot name is bound as additional data, so a value
// copied into another slot does not open.
//
// Values that are not sealed, or that fail to open (for example after a key
// change), read as missing; the session then simply asks for a new login.
type SealedStore struct {
	next ports.KeyValueStore
	aead cipher.AEAD
}

// NewSealedStore derives the encryption key from secret with HKDF-SHA256.
func NewSealedStore(next ports.KeyValueStore, secret string) (*SealedStore, error) {
	if secret == "" {
		return nil, ErrEmptyKey
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &SealedStore{next: next, aead: aead}, nil
}

func (s *SealedStore) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.next.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	plain, ok := s.open(key, raw)
	return plain, ok, nil
}

func (s *SealedStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}
	return s.next.Set(ctx, key, sealed)
}

func (s *SealedStore) Delete(ctx context.Context, keys ...string) error {
	return s.next.Delete(ctx, keys...)
}

func (s *SealedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *SealedStore) seal(key, value string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(out), nil
}

func (s *SealedStore) open(key, raw string) (string, bool) {
	enc, ok := strings.CutPrefix(raw, sealedPrefix)
	if !ok {
		return "", false
	}
	data, err := base64.RawStdEncoding.DecodeString(enc)
	if err != nil || len(data) < s.aead.NonceSize() {
		return "", false
	}
	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", false
	}
	return string(plain), true
}
