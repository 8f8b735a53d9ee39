package ticketing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// TokenBytes is the amount of entropy in a ticket token.
const TokenBytes = 32

// TokenGenerator produces ticket tokens from an entropy source.
type TokenGenerator struct {
	Rand io.Reader
}

// NewTokenGenerator returns a generator backed by crypto/rand.
func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{Rand: rand.Reader}
}

// Generate returns a fresh hex-encoded token. An error means the entropy
// source is unavailable and must not be retried.
func (g *TokenGenerator) Generate() (string, error) {
	src := g.Rand
	if src == nil {
		src = rand.Reader
	}
	buf := make([]byte, TokenBytes)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("read token entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
