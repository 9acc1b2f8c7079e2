package domain

import "time"

// User is the identity attached to a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the authenticated identity context issued by the identity service.
// Fields are ordered to minimize memory padding.
type Session struct {
	ExpiresAt    time.Time `json:"expires_at"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// Email returns the session's user email, or "" for a nil session.
func (s *Session) Email() string {
	if s == nil {
		return ""
	}
	return s.User.Email
}

// SameUser reports whether both sessions belong to the same user.
func (s *Session) SameUser(other *Session) bool {
	if s == nil || other == nil {
		return false
	}
	if s.User.ID != "" && other.User.ID != "" {
		return s.User.ID == other.User.ID
	}
	return s.User.Email == other.User.Email
}
