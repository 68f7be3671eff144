package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"staybook/internal/domain/quote"
)

// RandomNonceGenerator draws nonces from crypto/rand encoded as raw URL-safe base64.
type RandomNonceGenerator struct {
	Size int
}

func (g RandomNonceGenerator) NewNonce() (string, error) {
	size := g.Size
	if size <= 0 {
		size = 24
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: entropy read failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var _ quote.NonceGenerator = RandomNonceGenerator{}
