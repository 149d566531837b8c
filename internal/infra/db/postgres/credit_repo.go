package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/ports/repository"
)

var _ repository.CreditRepository = (*PostgresCreditRepo)(nil)

type PostgresCreditRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCreditRepo(pool *pgxpool.Pool) *PostgresCreditRepo {
	return &PostgresCreditRepo{pool: pool}
}

func (r *PostgresCreditRepo) Remaining(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT remaining FROM user_credits WHERE user_id=$1;`, userID).Scan(&n); err != nil {
		if err == pgx.ErrNoRows {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("credits remaining: %w", err)
	}
	return n, nil
}

// Consume decrements the balance by one. The guarded UPDATE makes the
// zero-balance check and the decrement a single atomic statement.
func (r *PostgresCreditRepo) Consume(ctx context.Context, tx repository.Tx, userID, leadID string) error {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
UPDATE user_credits SET remaining = remaining - 1, updated_at = now()
 WHERE user_id=$1 AND remaining > 0;
`
	tag, err := ex.Exec(ctx, q, userID)
	if err != nil {
		return fmt.Errorf("consume credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientCredits
	}
	const audit = `
INSERT INTO credit_spends (user_id, lead_id, spent_at) VALUES ($1,$2,now())
ON CONFLICT DO NOTHING;
`
	_, err = ex.Exec(ctx, audit, userID, leadID)
	return err
}

func (r *PostgresCreditRepo) Initialize(ctx context.Context, tx repository.Tx, userID, planName string, credits int) error {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO user_credits (user_id, plan_name, remaining, updated_at)
VALUES ($1,$2,$3,now())
ON CONFLICT (user_id) DO NOTHING;
`
	_, err = ex.Exec(ctx, q, userID, planName, credits)
	return err
}
