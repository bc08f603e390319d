package domain

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a 32-character random hex identifier.
func NewID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failing means the host is broken
	}
	return hex.EncodeToString(buf)
}
