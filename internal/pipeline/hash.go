package pipeline

import (
	"crypto/sha256"
	"fmt"
)

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// DocIDFor derives a stable doc id from an update when the caller gives none.
func DocIDFor(data []byte) string {
	return ContentHashHex(data)[:16]
}
