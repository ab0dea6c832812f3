package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

/* Teams */

func (r *Repo) GetTeam(ctx context.Context, id int64) (*Team, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, COALESCE(code,''), name, type, COALESCE(region,''), manager_id, active, created_at
		FROM teams WHERE id = $1
	`, id)
	var t Team
	if err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Type, &t.Region, &t.ManagerID, &t.Active, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &t, true, nil
}

/* Categories */

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, active, created_at
		FROM categories
		WHERE active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
