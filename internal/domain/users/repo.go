package users

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Memberships возвращает членства пользователя: основная команда первой,
// затем по дате вступления. Неактивные команды не учитываются.
func (r *Repo) Memberships(ctx context.Context, userID int64) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.team_id, t.name, t.type, COALESCE(t.region,''), m.role, m.is_primary
		FROM user_team_roles m
		JOIN teams t ON t.id = m.team_id
		JOIN users u ON u.id = m.user_id
		WHERE m.user_id = $1 AND t.active AND u.active
		ORDER BY m.is_primary DESC, m.created_at, m.team_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.TeamID, &m.TeamName, &m.TeamType, &m.Region, &m.Role, &m.Primary); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
