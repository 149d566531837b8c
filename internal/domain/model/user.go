package model

import (
	"time"

	"leadpilot/internal/domain"
)

// Session is the authenticated caller as seen by this service: the parsed
// claims of the access token minted by the external auth service. The core
// only ever checks presence; no entitlement data lives here.
type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

func (s *Session) IsZero() bool { return s == nil || s.UserID == "" }

// Profile is the user profile row kept alongside the auth service's user.
type Profile struct {
	ID        string
	UserID    string
	FullName  string
	WhatsApp  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProfile(userID, fullName, whatsapp string) (*Profile, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Profile{
		ID:        userID,
		UserID:    userID,
		FullName:  fullName,
		WhatsApp:  whatsapp,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
