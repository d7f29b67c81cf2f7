package httputil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// nonceBytes of randomness encode to 32 hex characters, which html/template
// writes into attributes unescaped.
const nonceBytes = 16

type nonceKey struct{}

// NewNonce returns a fresh CSP nonce for one response.
func NewNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate CSP nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func ContextWithNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, nonceKey{}, nonce)
}

// NonceFromContext returns the request's nonce, or "" outside securityHeaders.
func NonceFromContext(ctx context.Context) string {
	nonce, _ := ctx.Value(nonceKey{}).(string)
	return nonce
}
