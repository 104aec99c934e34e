package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewToken returns a random hex token of 2*n characters, suitable for
// single-use invitation links.
func NewToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
