package users

import (
	"time"
)

// SessionObject is a decoded view of a session proof, handy for controllers
// that want to inspect the session without touching JWT types.
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Email          string     `json:"email,omitempty"`
	Audience       []string   `json:"audience,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// Expired reports whether the session is past its expiration date.
func (s *SessionObject) Expired(now time.Time) bool {
	if s.ExpirationDate == nil {
		return false
	}
	return now.After(*s.ExpirationDate)
}

func sessionFromClaims(claims *SessionClaims) *SessionObject {
	session := &SessionObject{
		UserID:   claims.UserID(),
		Email:    claims.Email,
		Issuer:   claims.Issuer,
		Audience: claims.Audience,
	}

	if issuedAt := claims.IssuedAtTime(); !issuedAt.IsZero() {
		session.IssuedAt = &issuedAt
	}

	if expires := claims.Expires(); !expires.IsZero() {
		session.ExpirationDate = &expires
	}

	return session
}
