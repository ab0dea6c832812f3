package quotes

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Spok95/kitchen-quotes/internal/domain/history"
	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

type rowScanner interface {
	Scan(dest ...any) error
}

// itemRow — сырая строка до валидации.
type itemRow struct {
	line       Line
	status     string
	period     string
	initial    decimal.NullDecimal
	negotiated decimal.NullDecimal
	approved   decimal.NullDecimal
	quantity   decimal.NullDecimal
}

func (r *itemRow) typed() (Line, error) {
	l := r.line
	l.Status = Status(r.status)
	l.Period = period.Token(r.period)
	l.InitialPrice = ptr(r.initial)
	l.NegotiatedPrice = ptr(r.negotiated)
	l.ApprovedPrice = ptr(r.approved)
	l.Quantity = ptr(r.quantity)
	if err := ValidateLine(l); err != nil {
		return Line{}, err
	}
	return l, nil
}

func ptr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}

const lineColumns = `
	q.id, q.status, q.version, q.updated_at, q.supplier_id, s.code, s.name, q.region, q.period,
	i.id, i.product_id, i.initial_price, i.negotiated_price, i.approved_price, i.vat_rate, i.quantity`

func scanLine(row rowScanner) (Line, error) {
	var r itemRow
	l := &r.line
	if err := row.Scan(
		&l.QuotationID, &r.status, &l.Version, &l.UpdatedAt, &l.SupplierID, &l.SupplierCode, &l.SupplierName,
		&l.Region, &r.period,
		&l.ID, &l.ProductID, &r.initial, &r.negotiated, &r.approved, &l.VATRate, &r.quantity,
	); err != nil {
		return Line{}, err
	}
	return r.typed()
}

// FetchQuoteItems — все позиции КП периода в регионе и категориях, включая отменённые КП.
// Пустой регион — все регионы, пустые категории — все категории.
func (r *Repo) FetchQuoteItems(ctx context.Context, p period.Token, region string, categories []string) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+lineColumns+`
		FROM quote_items i
		JOIN quotations q ON q.id = i.quotation_id
		JOIN suppliers s ON s.id = q.supplier_id
		JOIN products p ON p.id = i.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE q.period = $1
		  AND ($2 = '' OR q.region = $2)
		  AND (cardinality($3::text[]) = 0 OR c.name = ANY($3))
		  AND p.deleted_at IS NULL
		ORDER BY s.code, q.id, i.id
	`, p.String(), region, categories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) GetQuotation(ctx context.Context, id int64) (*Quotation, bool, error) {
	var (
		q      Quotation
		status string
		per    string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT q.id, q.supplier_id, s.code, s.name, q.region, q.period, q.status, q.version,
		       COALESCE(q.created_by, 0), q.created_at, q.updated_at
		FROM quotations q
		JOIN suppliers s ON s.id = q.supplier_id
		WHERE q.id = $1
	`, id).Scan(&q.ID, &q.SupplierID, &q.SupplierCode, &q.SupplierName, &q.Region, &per, &status, &q.Version,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if q.Status, err = ParseStatus(status); err != nil {
		return nil, false, fmt.Errorf("%w: quotation %d: %v", ErrMalformedRow, id, err)
	}
	if q.Period, err = period.Parse(per); err != nil {
		return nil, false, fmt.Errorf("%w: quotation %d: %v", ErrMalformedRow, id, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+lineColumns+`
		FROM quote_items i
		JOIN quotations q ON q.id = i.quotation_id
		JOIN suppliers s ON s.id = q.supplier_id
		WHERE q.id = $1
		ORDER BY i.id
	`, id)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, false, err
		}
		q.Items = append(q.Items, l.Item)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return &q, true, nil
}

func (r *Repo) FindQuotationID(ctx context.Context, supplierID int64, region string, p period.Token) (int64, bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM quotations
		WHERE supplier_id = $1 AND region = $2 AND period = $3
	`, supplierID, region, p.String()).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// guard — условное обновление заголовка: версия растёт, 0 строк — конфликт.
func guard(ctx context.Context, tx pgx.Tx, g Guard, to Status, set string, extra ...any) error {
	args := append([]any{g.QuotationID, string(g.ExpectedStatus), g.ExpectedVersion, string(to)}, extra...)
	tag, err := tx.Exec(ctx, `
		UPDATE quotations
		SET status = $4, version = version + 1, updated_at = now()`+set+`
		WHERE id = $1 AND status = $2 AND version = $3
	`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quotation %d is no longer %s v%d", ErrConflict, g.QuotationID, g.ExpectedStatus, g.ExpectedVersion)
	}
	return nil
}

func setItemPrices(ctx context.Context, tx pgx.Tx, quotationID int64, column string, prices map[int64]decimal.Decimal) error {
	ids := make([]int64, 0, len(prices))
	for id := range prices {
		ids = append(ids, id)
	}
	// одинаковый порядок блокировок строк
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		tag, err := tx.Exec(ctx, `
			UPDATE quote_items SET `+column+` = $3
			WHERE id = $1 AND quotation_id = $2
		`, id, quotationID, prices[id])
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("%w: item %d is not part of quotation %d", ErrConflict, id, quotationID)
		}
	}
	return nil
}

func (r *Repo) SaveNegotiation(ctx context.Context, cmd NegotiationCommand) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := guard(ctx, tx, cmd.Guard, StatusNegotiation, ""); err != nil {
		return err
	}
	if err := setItemPrices(ctx, tx, cmd.QuotationID, "negotiated_price", cmd.Prices); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ApproveQuotationBatch — статус, утверждённые цены и журнал в одной транзакции: либо всё, либо ничего.
func (r *Repo) ApproveQuotationBatch(ctx context.Context, cmd ApprovalCommand) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := guard(ctx, tx, cmd.Guard, StatusApproved, `, approved_by = $5, approved_at = now()`, cmd.ApprovedBy); err != nil {
		return err
	}
	if err := setItemPrices(ctx, tx, cmd.QuotationID, "approved_price", cmd.Prices); err != nil {
		return err
	}
	if err := history.Append(ctx, tx, cmd.History); err != nil {
		return historyErr(err)
	}
	return tx.Commit(ctx)
}

func historyErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrAlreadyRecorded, pgErr.Detail)
	}
	return err
}

func (r *Repo) Cancel(ctx context.Context, cmd CancelCommand) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := guard(ctx, tx, cmd.Guard, StatusCancelled, `, cancelled_by = $5, cancelled_at = now()`, cmd.CancelledBy); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
