// Package fingerprint derives the one-way client identifier used to bucket
// rate-limit counts without retaining the raw network address.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hasher turns a client network address into an irreversible bucket key.
// The pepper is a server-side secret mixed in so hashes cannot be brute
// forced from the (small) IPv4 space.
type Hasher struct {
	pepper string
}

// NewHasher creates a hasher with the given pepper.
func NewHasher(pepper string) *Hasher {
	return &Hasher{pepper: pepper}
}

// Hash returns hex(SHA-256(addr + ":" + pepper)).
func (h *Hasher) Hash(addr string) string {
	sum := sha256.Sum256([]byte(addr + ":" + h.pepper))
	return hex.EncodeToString(sum[:])
}

// ClientAddr extracts the originating client address from an
// X-Forwarded-For header value: the first comma-separated element, trimmed.
// Returns "" when the header is absent.
func ClientAddr(forwardedFor string) string {
	addr, _, _ := strings.Cut(forwardedFor, ",")
	return strings.TrimSpace(addr)
}
