package products

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// ListInScope — товары региона (и глобальные) в выбранных категориях.
// Пустой регион — все регионы, пустой список категорий — все категории.
// Мягко удалённые товары не показываются.
func (r *Repo) ListInScope(ctx context.Context, region string, categories []string) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.code, p.name, p.unit, p.category_id, c.name, COALESCE(p.region,''), p.base_price, p.created_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.deleted_at IS NULL
		  AND ($1 = '' OR p.region IS NULL OR p.region = '' OR p.region = $1)
		  AND (cardinality($2::text[]) = 0 OR c.name = ANY($2))
		ORDER BY c.name, p.code
	`, region, categories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var (
			p    Product
			base decimal.NullDecimal
		)
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.CategoryID, &p.Category, &p.Region, &base, &p.CreatedAt); err != nil {
			return nil, err
		}
		if base.Valid {
			v := base.Decimal
			p.BasePrice = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// BaseQuantities — каталожные количества по товарам. Товары без количества в ответ не попадают.
func (r *Repo) BaseQuantities(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, base_quantity
		FROM products
		WHERE id = ANY($1) AND base_quantity IS NOT NULL
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id  int64
			qty decimal.Decimal
		)
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		out[id] = qty
	}
	return out, rows.Err()
}
