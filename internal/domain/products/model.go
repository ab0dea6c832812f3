package products

import (
	"time"

	"github.com/shopspring/decimal"
)

type Unit string

const (
	UnitKg    Unit = "kg"
	UnitG     Unit = "g"
	UnitL     Unit = "l"
	UnitPcs   Unit = "pcs"
	UnitBox   Unit = "box"
	UnitBunch Unit = "bunch"
)

// Product — позиция каталога. Region пустой — товар глобальный.
// BasePrice — каталожная цена, база для сравнения vs catalog.
type Product struct {
	ID         int64
	Code       string
	Name       string
	Unit       Unit
	CategoryID int64
	Category   string
	Region     string
	BasePrice  *decimal.Decimal
	DeletedAt  *time.Time
	CreatedAt  time.Time
}

// VisibleIn reports whether the product belongs to region (global products belong everywhere).
func (p Product) VisibleIn(region string) bool {
	return p.Region == "" || region == "" || p.Region == region
}
