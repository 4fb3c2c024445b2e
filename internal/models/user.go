package models

import "time"

// User represents a parent account. Parents sign in through an OAuth provider only.
type User struct {
	ID              string    `json:"id"`
	Provider        string    `json:"provider"`
	ProviderSubject string    `json:"-"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Session represents an authenticated parent session
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
