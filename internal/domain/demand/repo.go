package demand

import (
	"context"

	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// FetchKitchenDemands — заявки одной кухни за период.
func (r *Repo) FetchKitchenDemands(ctx context.Context, p period.Token, teamID int64) ([]Demand, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT team_id, product_id, period, quantity
		FROM kitchen_period_demands
		WHERE period = $1 AND team_id = $2
	`, p.String(), teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Demand
	for rows.Next() {
		var (
			d   Demand
			raw string
		)
		if err := rows.Scan(&d.TeamID, &d.ProductID, &raw, &d.Quantity); err != nil {
			return nil, err
		}
		if d.Period, err = period.Parse(raw); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Replace записывает заявки кухни за период одной транзакцией.
// Нулевое количество удаляет строку: кухня возвращается к каталожному количеству.
func (r *Repo) Replace(ctx context.Context, teamID int64, p period.Token, entries []Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, e := range entries {
		if e.Quantity.IsZero() {
			if _, err = tx.Exec(ctx, `
				DELETE FROM kitchen_period_demands
				WHERE team_id = $1 AND product_id = $2 AND period = $3
			`, teamID, e.ProductID, p.String()); err != nil {
				return err
			}
			continue
		}
		if _, err = tx.Exec(ctx, `
			INSERT INTO kitchen_period_demands (team_id, product_id, period, quantity)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (team_id, product_id, period)
			DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
		`, teamID, e.ProductID, p.String(), e.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
