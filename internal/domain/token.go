package domain

import "time"

// SessionClaims are the claims carried by a signed session token
type SessionClaims struct {
	SessionID string    `json:"jti"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"exp"`
}

// IsExpired checks if the session is expired
func (c SessionClaims) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// TTL returns the remaining lifetime of the session, never negative.
func (c SessionClaims) TTL(now time.Time) time.Duration {
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
