package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const KeySize = 32

// DeriveKey expands one configured secret into independent keys, one per
// purpose ("settings", "session-signing", "session-sealing").
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("secret is required")
	}
	r := hkdf.New(sha256.New, []byte(secret), []byte("vixel"), []byte(purpose))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}
