package repository

import "context"

// -----------------------------
// Credits
// -----------------------------

type CreditRepository interface {
	// Remaining returns the user's remaining credit balance.
	// Returns domain.ErrNotFound when the user has no credit row yet.
	Remaining(ctx context.Context, tx Tx, userID string) (int, error)
	// Consume spends one credit against a lead unlock. Returns
	// domain.ErrInsufficientCredits when the balance is zero.
	Consume(ctx context.Context, tx Tx, userID, leadID string) error
	// Initialize seeds a credit row for a new user on the named plan.
	// Idempotent: an existing row is left untouched.
	Initialize(ctx context.Context, tx Tx, userID, planName string, credits int) error
}
