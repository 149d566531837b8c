package usecase

import (
	"context"
	"errors"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

const (
	// FreePlanCredits is the allotment seeded for a fresh account.
	FreePlanCredits = 10
	// DegradedCreditDefault is shown when the credits store is missing or
	// failing; the feed keeps working instead of propagating the error.
	DegradedCreditDefault = 7
)

// CreditUseCase tracks unlock credits per user. Lookup failures degrade to a
// default instead of erroring: a broken credits table must never take the
// feed down.
type CreditUseCase interface {
	// Remaining never fails. A missing row is seeded with the free plan
	// allotment; a failing store yields DegradedCreditDefault.
	Remaining(ctx context.Context, userID string) int
	// Initialize seeds credits for a new account. Idempotent.
	Initialize(ctx context.Context, userID, planName string) error
}

var _ CreditUseCase = (*creditUC)(nil)

type creditUC struct {
	credits repository.CreditRepository
	log     *zerolog.Logger
}

func NewCreditUseCase(credits repository.CreditRepository, logger *zerolog.Logger) CreditUseCase {
	l := logger.With().Str("component", "CreditUC").Logger()
	return &creditUC{credits: credits, log: &l}
}

func (c *creditUC) Remaining(ctx context.Context, userID string) int {
	n, err := c.credits.Remaining(ctx, repository.NoTX, userID)
	if err == nil {
		return n
	}
	if errors.Is(err, domain.ErrNotFound) {
		// First sighting of this user: seed the free plan and re-read.
		if initErr := c.credits.Initialize(ctx, repository.NoTX, userID, "free", FreePlanCredits); initErr == nil {
			if n, err = c.credits.Remaining(ctx, repository.NoTX, userID); err == nil {
				return n
			}
		}
	}
	c.log.Warn().Err(err).Str("user_id", userID).Msg("credits lookup degraded to default")
	return DegradedCreditDefault
}

func (c *creditUC) Initialize(ctx context.Context, userID, planName string) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	return c.credits.Initialize(ctx, repository.NoTX, userID, planName, FreePlanCredits)
}
