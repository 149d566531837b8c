package model

import (
	"time"

	"leadpilot/internal/domain"
)

// Lead is a prospect company record shown in the feed.
// Contact fields stay empty on the wire until the lead is unlocked.
type Lead struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location"`
	CNAE        string    `json:"cnae,omitempty"`
	Segment     string    `json:"segment,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	IsHot       bool      `json:"is_hot"`
	Unlocked    bool      `json:"unlocked"`
	Favorite    bool      `json:"favorite"`
	OpenedAt    time.Time `json:"opened_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewLead(id, companyName, location string) (*Lead, error) {
	if id == "" || companyName == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Lead{
		ID:          id,
		CompanyName: companyName,
		Location:    location,
		CreatedAt:   time.Now(),
	}, nil
}

func (l *Lead) IsZero() bool { return l == nil || l.ID == "" }

// OpenedWithin reports whether the company opened within d of now,
// the signal behind the "hot lead" badge.
func (l *Lead) OpenedWithin(d time.Duration) bool {
	return !l.OpenedAt.IsZero() && time.Since(l.OpenedAt) <= d
}
