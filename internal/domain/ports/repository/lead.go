package repository

import (
	"context"

	"leadpilot/internal/domain/model"
)

// -----------------------------
// Leads
// -----------------------------

// LeadFilter narrows a feed page. Zero values mean "no constraint".
type LeadFilter struct {
	CNAE    string
	Segment string
	HotOnly bool
}

type LeadRepository interface {
	// ListPage returns one feed page ordered by creation time descending.
	// Page numbering starts at 1. Fewer than pageSize rows signals end-of-data
	// to the caller; the repository itself makes no such promise.
	ListPage(ctx context.Context, tx Tx, page, pageSize int, filter LeadFilter) ([]*model.Lead, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.Lead, error)
	Save(ctx context.Context, tx Tx, lead *model.Lead) error
	// MarkUnlocked records that a user unlocked a lead's contact data.
	MarkUnlocked(ctx context.Context, tx Tx, userID, leadID string) error
	// SetFavorite flips the favorite flag for a user/lead pair and returns
	// the new value.
	SetFavorite(ctx context.Context, tx Tx, userID, leadID string, favorite bool) error
	ListFavorites(ctx context.Context, tx Tx, userID string) ([]string, error)
	ListUnlocked(ctx context.Context, tx Tx, userID string) ([]string, error)
}
