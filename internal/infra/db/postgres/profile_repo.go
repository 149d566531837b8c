package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/model"
	"leadpilot/internal/domain/ports/repository"
)

var _ repository.ProfileRepository = (*PostgresProfileRepo)(nil)

type PostgresProfileRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProfileRepo(pool *pgxpool.Pool) *PostgresProfileRepo {
	return &PostgresProfileRepo{pool: pool}
}

func (r *PostgresProfileRepo) Upsert(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO profiles (id, user_id, full_name, whatsapp, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,now())
ON CONFLICT (user_id) DO UPDATE SET
  full_name=$3, whatsapp=$4, updated_at=now();
`
	_, err = ex.Exec(ctx, q, p.ID, p.UserID, p.FullName, p.WhatsApp, p.CreatedAt)
	return err
}

func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT id, user_id, full_name, COALESCE(whatsapp,''), created_at, updated_at
  FROM profiles WHERE user_id=$1;
`
	var p model.Profile
	if err := ex.QueryRow(ctx, q, userID).Scan(&p.ID, &p.UserID, &p.FullName, &p.WhatsApp, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
