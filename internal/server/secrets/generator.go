// Package secrets produces the one-time secrets handed to users: six digit
// verification codes and password reset tokens. Both come from crypto/rand.
package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
)

const (
	// CodeDigits is the length of a verification code.
	CodeDigits = 6
	// ResetTokenBytes is the entropy of a reset token (256 bits).
	ResetTokenBytes = 32
)

var codeSpace = big.NewInt(1_000_000)

// Generator draws secrets from a cryptographically strong source.
type Generator struct {
	rand io.Reader
}

func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader}
}

// Code returns a uniformly distributed code in 000000..999999, zero padded.
func (g *Generator) Code() (string, error) {
	n, err := rand.Int(g.rand, codeSpace)
	if err != nil {
		return "", fmt.Errorf("code generation: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeDigits, n.Int64()), nil
}

// ResetToken returns ResetTokenBytes random bytes as lowercase hex, which is
// URL safe without escaping.
func (g *Generator) ResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := io.ReadFull(g.rand, b); err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}
	return hex.EncodeToString(b), nil
}
