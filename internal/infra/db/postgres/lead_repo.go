package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"leadpilot/internal/domain"
	"leadpilot/internal/domain/model"
	"leadpilot/internal/domain/ports/repository"
)

var _ repository.LeadRepository = (*PostgresLeadRepo)(nil)

type PostgresLeadRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresLeadRepo(pool *pgxpool.Pool) *PostgresLeadRepo {
	return &PostgresLeadRepo{pool: pool}
}

const leadColumns = `id, company_name, COALESCE(description,''), location, COALESCE(cnae,''), COALESCE(segment,''),
       COALESCE(phone,''), COALESCE(email,''), is_hot, COALESCE(opened_at, 'epoch'::timestamptz), created_at`

func (r *PostgresLeadRepo) ListPage(ctx context.Context, tx repository.Tx, page, pageSize int, filter repository.LeadFilter) ([]*model.Lead, error) {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	q := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := make([]interface{}, 0, 5)
	if filter.CNAE != "" {
		args = append(args, filter.CNAE)
		q += fmt.Sprintf(" AND cnae = $%d", len(args))
	}
	if filter.Segment != "" {
		args = append(args, filter.Segment)
		q += fmt.Sprintf(" AND segment = $%d", len(args))
	}
	if filter.HotOnly {
		q += " AND is_hot"
	}
	args = append(args, pageSize)
	q += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d", len(args))
	args = append(args, (page-1)*pageSize)
	q += fmt.Sprintf(" OFFSET $%d;", len(args))

	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []*model.Lead
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.CompanyName, &l.Description, &l.Location, &l.CNAE, &l.Segment,
			&l.Phone, &l.Email, &l.IsHot, &l.OpenedAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *PostgresLeadRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Lead, error) {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + leadColumns + ` FROM leads WHERE id=$1;`
	var l model.Lead
	if err := ex.QueryRow(ctx, q, id).Scan(&l.ID, &l.CompanyName, &l.Description, &l.Location, &l.CNAE, &l.Segment,
		&l.Phone, &l.Email, &l.IsHot, &l.OpenedAt, &l.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *PostgresLeadRepo) Save(ctx context.Context, tx repository.Tx, lead *model.Lead) error {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO leads (
  id, company_name, description, location, cnae, segment, phone, email, is_hot, opened_at, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  company_name=$2, description=$3, location=$4, cnae=$5, segment=$6,
  phone=$7, email=$8, is_hot=$9, opened_at=$10;
`
	_, err = ex.Exec(ctx, q, lead.ID, lead.CompanyName, lead.Description, lead.Location, lead.CNAE, lead.Segment,
		lead.Phone, lead.Email, lead.IsHot, lead.OpenedAt, lead.CreatedAt)
	return err
}

func (r *PostgresLeadRepo) MarkUnlocked(ctx context.Context, tx repository.Tx, userID, leadID string) error {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO lead_unlocks (user_id, lead_id, unlocked_at)
VALUES ($1,$2,now())
ON CONFLICT (user_id, lead_id) DO NOTHING;
`
	_, err = ex.Exec(ctx, q, userID, leadID)
	return err
}

func (r *PostgresLeadRepo) SetFavorite(ctx context.Context, tx repository.Tx, userID, leadID string, favorite bool) error {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if favorite {
		const q = `
INSERT INTO lead_favorites (user_id, lead_id, created_at)
VALUES ($1,$2,now())
ON CONFLICT (user_id, lead_id) DO NOTHING;
`
		_, err = ex.Exec(ctx, q, userID, leadID)
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM lead_favorites WHERE user_id=$1 AND lead_id=$2;`, userID, leadID)
	return err
}

func (r *PostgresLeadRepo) ListFavorites(ctx context.Context, tx repository.Tx, userID string) ([]string, error) {
	return r.listIDs(ctx, tx, `SELECT lead_id FROM lead_favorites WHERE user_id=$1;`, userID)
}

func (r *PostgresLeadRepo) ListUnlocked(ctx context.Context, tx repository.Tx, userID string) ([]string, error) {
	return r.listIDs(ctx, tx, `SELECT lead_id FROM lead_unlocks WHERE user_id=$1;`, userID)
}

func (r *PostgresLeadRepo) listIDs(ctx context.Context, tx repository.Tx, q, userID string) ([]string, error) {
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
