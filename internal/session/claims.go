package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the display view of an access credential. Signatures are not
// verified; the backend remains the only authority on the token.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role,omitempty"`
	Type string `json:"type,omitempty"`
}

func ParseClaims(token string) (Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Claims{}, fmt.Errorf("parse access token: %w", err)
	}
	return c, nil
}

// ExpiresIn is the remaining lifetime relative to now, or false when the
// token carries no exp claim.
func (c Claims) ExpiresIn(now time.Time) (time.Duration, bool) {
	if c.ExpiresAt == nil {
		return 0, false
	}
	return c.ExpiresAt.Time.Sub(now), true
}
