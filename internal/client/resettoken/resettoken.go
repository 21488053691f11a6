// Package resettoken classifies password-reset tokens by their embedded
// expiry, without contacting the network. The classification is advisory: it
// exists to spare the user a doomed round trip, not to authorize anything.
// The backend re-checks expiry when the reset is actually confirmed, and its
// verdict always wins.
package resettoken

import (
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Classification is the advisory verdict on a reset token.
type Classification int

const (
	Valid Classification = iota
	Expired
)

func (c Classification) String() string {
	if c == Valid {
		return "valid"
	}
	return "expired"
}

// Classify decodes the token's embedded expiry and compares it to now.
// The signature is deliberately not verified: the client does not hold the
// signing key, and a forged token fails server-side anyway. Tokens that
// cannot be decoded or carry no expiry classify as Expired, since submitting
// them is just as doomed.
func Classify(token string, now time.Time) Classification {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Expired
	}
	if claims.ExpiresAt == nil {
		return Expired
	}
	if !claims.ExpiresAt.After(now) {
		return Expired
	}
	return Valid
}

// FromLink extracts the reset token from a reset-link URL's "token" query
// parameter. A bare token is returned unchanged, so users can paste either
// the full link or just the token.
func FromLink(link string) string {
	trimmed := strings.TrimSpace(link)
	u, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	if token := u.Query().Get("token"); token != "" {
		return token
	}
	return trimmed
}
