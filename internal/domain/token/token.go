// Package token issues and verifies the short-lived proof-of-freshness
// credential a client must present with a score submission.
//
// A token is self-verifying: its validity is re-derived from its own fields
// plus the server secret, so nothing is stored server-side and there is no
// revocation list. The serialized form is "issuedAt.expiresAt.signature"
// where signature = hex(HMAC-SHA256(secret, "issuedAt.expiresAt")).
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is the issuance-to-expiry window. Long enough to finish a play
// session, short enough to limit replay value.
const DefaultTTL = 15 * time.Minute

const serializedFieldCount = 3

// Token is an issued proof-of-freshness credential.
type Token struct {
	IssuedAt  int64
	ExpiresAt int64
	Signature string
}

// String returns the dot-joined wire form handed to clients.
func (t Token) String() string {
	return strconv.FormatInt(t.IssuedAt, 10) + "." + strconv.FormatInt(t.ExpiresAt, 10) + "." + t.Signature
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service signs and verifies tokens with a fixed secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a token service for the given signing secret.
func New(secret string, opts ...Option) *Service {
	s := &Service{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a token valid from now until now+TTL.
func (s *Service) Issue() Token {
	issued := s.now().Unix()
	expires := issued + int64(s.ttl/time.Second)
	payload := strconv.FormatInt(issued, 10) + "." + strconv.FormatInt(expires, 10)
	return Token{
		IssuedAt:  issued,
		ExpiresAt: expires,
		Signature: s.sign(payload),
	}
}

// Verify reports whether serialized is an authentic, unexpired token.
// Every malformed input maps to false; Verify never returns an error.
func (s *Service) Verify(serialized string) bool {
	parts := strings.Split(serialized, ".")
	if len(parts) != serializedFieldCount {
		return false
	}
	issuedStr, expiresStr, sig := parts[0], parts[1], parts[2]
	if !isDigits(issuedStr) || !isDigits(expiresStr) {
		return false
	}
	mac := s.sign(issuedStr + "." + expiresStr)
	if !hmac.Equal([]byte(mac), []byte(sig)) {
		return false
	}
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return false
	}
	return s.now().Unix() <= expires
}

func (s *Service) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
