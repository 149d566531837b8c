package repository

import (
	"context"

	"leadpilot/internal/domain/model"
)

// -----------------------------
// Profiles
// -----------------------------

type ProfileRepository interface {
	Upsert(ctx context.Context, tx Tx, p *model.Profile) error
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.Profile, error)
}
