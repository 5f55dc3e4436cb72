package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a time-ordered UUIDv7 string. Used for room, message,
// and diary identifiers so that IDs sort by creation time.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// rand failure; fall back to a plain random ID
		return randomHex(16)
	}
	return id.String()
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
