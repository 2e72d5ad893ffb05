package domain

import (
	"strings"
	"time"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// IssuedToken is a first-party bearer access token.
type IssuedToken struct {
	ID        int64     `json:"-" db:"id"`
	Token     string    `json:"access_token" db:"token"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ClientID  string    `json:"client_id" db:"client_id"`
	Scope     string    `json:"scope" db:"scope"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ScopeNames returns the granted scope as a list of names.
func (t *IssuedToken) ScopeNames() []string {
	return strings.Fields(t.Scope)
}

// ExpiresIn returns the remaining lifetime in whole seconds, never negative.
func (t *IssuedToken) ExpiresIn(now time.Time) int64 {
	secs := int64(t.ExpiresAt.Sub(now) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// Expired reports whether the token is no longer valid at now.
func (t *IssuedToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
