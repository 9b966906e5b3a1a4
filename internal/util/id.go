package util

import (
	"crypto/rand"
	"encoding/hex"
)

// idBytes gives 24 hex characters, short enough to read in logs while
// still collision-safe for document and message rows.
const idBytes = 12

// NewID returns a random lowercase hex identifier.
func NewID() string {
	b := make([]byte, idBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
