// Package validate implements the multi-stage gate a submission must pass
// before it is considered for persistence. Checks run in a fixed order and
// short-circuit on the first failure; cheap shape checks come before the
// cryptographic verification, which comes before the clock check.
package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/okian/coinop/internal/domain/model"
)

// Reason identifies the first check a submission failed.
type Reason string

// Rejection reasons, in check order.
const (
	ReasonInvalidScore    Reason = "INVALID_SCORE"
	ReasonInvalidIdentity Reason = "INVALID_IDENTITY"
	ReasonProfanity       Reason = "PROFANITY"
	ReasonMissingToken    Reason = "MISSING_TOKEN"
	ReasonMalformedSig    Reason = "MALFORMED_SIG"
	ReasonInvalidToken    Reason = "INVALID_TOKEN"
	ReasonClockSkew       Reason = "CLOCK_SKEW"
	ReasonScoreTooLarge   Reason = "SCORE_TOO_LARGE"
)

// Kind groups reasons into the coarse error taxonomy used by callers.
type Kind int

// Reason kinds.
const (
	KindShape Kind = iota
	KindAuth
	KindPolicy
)

// Kind returns the taxonomy bucket for a reason.
func (r Reason) Kind() Kind {
	switch r {
	case ReasonMalformedSig, ReasonInvalidToken, ReasonClockSkew:
		return KindAuth
	case ReasonProfanity, ReasonScoreTooLarge:
		return KindPolicy
	default:
		return KindShape
	}
}

// Message returns the client-facing description for a reason.
func (r Reason) Message() string {
	switch r {
	case ReasonInvalidScore:
		return "Invalid score"
	case ReasonInvalidIdentity:
		return "Invalid username"
	case ReasonProfanity:
		return "Profanity not allowed"
	case ReasonMissingToken:
		return "Missing token"
	case ReasonMalformedSig:
		return "Malformed sig"
	case ReasonInvalidToken:
		return "Invalid token"
	case ReasonClockSkew:
		return "Clock skew"
	case ReasonScoreTooLarge:
		return "Score too large"
	default:
		return "Rejected"
	}
}

// Rejection is the error returned for a submission that failed a check.
type Rejection struct {
	Reason Reason
}

func (r *Rejection) Error() string {
	return "submission rejected: " + string(r.Reason)
}

// Default bounds. The ceiling is a sanity bound distinct from "non-negative",
// guarding against overflow and display abuse even from a signed client.
const (
	DefaultMaxScore = 2_000_000_000
	DefaultMaxSkew  = 15 * time.Minute
)

var identityPattern = regexp.MustCompile(`^[A-Za-z0-9_\- ]{1,16}$`)

// DefaultProfanity is the built-in blocklist, matched as case-insensitive
// substrings of the identity.
var DefaultProfanity = []string{"fuck", "shit", "bitch"}

// TokenVerifier authenticates the presented token.
type TokenVerifier interface {
	Verify(serialized string) bool
}

// Option applies a configuration option to the Validator.
type Option func(*Validator)

// WithProfanity replaces the profanity blocklist.
func WithProfanity(words []string) Option {
	return func(v *Validator) {
		v.profanity = make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				v.profanity = append(v.profanity, w)
			}
		}
	}
}

// WithMaxScore overrides the absolute score ceiling.
func WithMaxScore(maxScore float64) Option {
	return func(v *Validator) {
		if maxScore > 0 {
			v.maxScore = maxScore
		}
	}
}

// WithMaxSkew overrides the tolerated client clock skew.
func WithMaxSkew(skew time.Duration) Option {
	return func(v *Validator) {
		if skew > 0 {
			v.maxSkew = skew
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// Validator evaluates submissions against the fixed check order.
type Validator struct {
	verifier  TokenVerifier
	profanity []string
	maxScore  float64
	maxSkew   time.Duration
	now       func() time.Time
}

// New creates a validator that authenticates tokens with verifier.
func New(verifier TokenVerifier, opts ...Option) *Validator {
	v := &Validator{
		verifier:  verifier,
		profanity: DefaultProfanity,
		maxScore:  DefaultMaxScore,
		maxSkew:   DefaultMaxSkew,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Check runs all checks in order and returns a *Rejection for the first
// failure, or nil when the submission passes. Check is deterministic for a
// given submission and clock reading.
func (v *Validator) Check(sub model.Submission) error {
	if math.IsNaN(sub.Score) || math.IsInf(sub.Score, 0) || sub.Score < 0 {
		return &Rejection{Reason: ReasonInvalidScore}
	}
	if !identityPattern.MatchString(sub.Username) {
		return &Rejection{Reason: ReasonInvalidIdentity}
	}
	lower := strings.ToLower(sub.Username)
	for _, w := range v.profanity {
		if strings.Contains(lower, w) {
			return &Rejection{Reason: ReasonProfanity}
		}
	}
	if sub.TS == 0 || sub.Sig == "" {
		return &Rejection{Reason: ReasonMissingToken}
	}
	parts := strings.Split(sub.Sig, "|")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return &Rejection{Reason: ReasonMalformedSig}
	}
	if !v.verifier.Verify(parts[0]) {
		return &Rejection{Reason: ReasonInvalidToken}
	}
	clientTS, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return &Rejection{Reason: ReasonClockSkew}
	}
	skew := v.now().Unix() - clientTS
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(v.maxSkew/time.Second) {
		return &Rejection{Reason: ReasonClockSkew}
	}
	if sub.Score > v.maxScore {
		return &Rejection{Reason: ReasonScoreTooLarge}
	}
	return nil
}
