package quotes

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestHistoryErr(t *testing.T) {
	dup := &pgconn.PgError{Code: uniqueViolation, Detail: "Key (product_id, supplier_id, region, period, price_type) already exists."}
	err := historyErr(dup)
	if !errors.Is(err, ErrAlreadyRecorded) || errors.Is(err, ErrConflict) {
		t.Fatalf("unique violation must be ErrAlreadyRecorded, got %v", err)
	}

	other := &pgconn.PgError{Code: "23503"}
	if err := historyErr(other); err != other {
		t.Fatalf("other errors pass through, got %v", err)
	}
}
