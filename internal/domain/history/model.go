package history

import (
	"time"

	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/shopspring/decimal"
)

type PriceType string

const PriceTypeApproved PriceType = "approved"

// Entry — запись журнала цен. Только вставка, никогда не обновляется.
type Entry struct {
	ID         int64
	ProductID  int64
	SupplierID int64
	Period     period.Token
	Price      decimal.Decimal
	PriceType  PriceType
	Region     string
	CreatedAt  time.Time
}

// Key identifies one (product, supplier) pair in batch lookups.
type Key struct {
	ProductID  int64
	SupplierID int64
}
