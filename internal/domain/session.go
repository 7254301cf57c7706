package domain

import (
	"time"
)

// Session is an opaque bearer credential. Only the SHA-256 of the token is
// stored; the raw token lives exclusively in the client cookie.
type Session struct {
	TokenHash string    `json:"-" db:"token_hash"`
	UserID    string    `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	IPAddress string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty" db:"user_agent"`
}

// Valid reports whether the session is still usable at the given instant.
// Expiry is absolute; validation never extends it.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
