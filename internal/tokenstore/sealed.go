package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// SealedBackend encrypts values with secretbox before handing them to inner.
// Values that fail to open read as absent.
type SealedBackend struct {
	inner Backend
	key   [32]byte
}

// NewSealedBackend wraps inner.
func NewSealedBackend(inner Backend, key [32]byte) *SealedBackend {
	return &SealedBackend{inner: inner, key: key}
}

// ParseSealKey decodes a 64 character hex key.
func ParseSealKey(hexKey string) ([32]byte, error) {
	var key [32]byte
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return key, fmt.Errorf("seal key: %w", err)
	}
	if len(raw) != len(key) {
		return key, fmt.Errorf("seal key: want %d bytes, got %d", len(key), len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

func (b *SealedBackend) Get(ctx context.Context, key string) (string, bool, error) {
	stored, ok, err := b.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	box, err := base64.RawStdEncoding.DecodeString(stored)
	if err != nil || len(box) < nonceSize {
		return "", false, nil
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, opened := secretbox.Open(nil, box[nonceSize:], &nonce, &b.key)
	if !opened {
		return "", false, nil
	}
	return string(plain), true, nil
}

func (b *SealedBackend) Set(ctx context.Context, key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("seal nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, &b.key)
	return b.inner.Set(ctx, key, base64.RawStdEncoding.EncodeToString(box))
}

func (b *SealedBackend) Delete(ctx context.Context, keys ...string) error {
	return b.inner.Delete(ctx, keys...)
}

func (b *SealedBackend) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}
