package history

import (
	"context"
	"errors"

	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Execer — пул или транзакция: Append вызывается внутри транзакции утверждения.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Append пишет утверждённые цены. Повторная запись той же
// (product, supplier, region, period, price_type) нарушает уникальный индекс и откатывает транзакцию.
func Append(ctx context.Context, db Execer, entries []Entry) error {
	for _, e := range entries {
		if _, err := db.Exec(ctx, `
			INSERT INTO price_history (product_id, supplier_id, period, price, price_type, region)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, e.ProductID, e.SupplierID, e.Period.String(), e.Price, string(e.PriceType), e.Region); err != nil {
			return err
		}
	}
	return nil
}

// PreviousApproved — последняя утверждённая цена пары (товар, поставщик) строго до периода before.
// Пустой регион — без фильтра по региону.
func (r *Repo) PreviousApproved(ctx context.Context, productID, supplierID int64, before period.Token, region string) (decimal.Decimal, bool, error) {
	var price decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT price
		FROM price_history
		WHERE product_id = $1 AND supplier_id = $2 AND price_type = 'approved'
		  AND period < $3
		  AND ($4 = '' OR region = $4)
		ORDER BY period DESC, created_at DESC
		LIMIT 1
	`, productID, supplierID, before.String(), region).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return price, true, nil
}

// PreviousApprovedBatch — то же для набора товаров по всем поставщикам, одним запросом.
func (r *Repo) PreviousApprovedBatch(ctx context.Context, productIDs []int64, before period.Token, region string) (map[Key]decimal.Decimal, error) {
	out := make(map[Key]decimal.Decimal)
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (product_id, supplier_id) product_id, supplier_id, price
		FROM price_history
		WHERE product_id = ANY($1) AND price_type = 'approved'
		  AND period < $2
		  AND ($3 = '' OR region = $3)
		ORDER BY product_id, supplier_id, period DESC, created_at DESC
	`, productIDs, before.String(), region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k     Key
			price decimal.Decimal
		)
		if err := rows.Scan(&k.ProductID, &k.SupplierID, &price); err != nil {
			return nil, err
		}
		out[k] = price
	}
	return out, rows.Err()
}
