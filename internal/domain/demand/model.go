package demand

import (
	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/shopspring/decimal"
)

// Demand — заявка кухни на товар в периоде; перекрывает каталожное количество.
type Demand struct {
	TeamID    int64           `json:"teamId"`
	ProductID int64           `json:"productId"`
	Period    period.Token    `json:"period"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Entry — строка запроса на изменение заявки. Нулевое количество снимает заявку.
type Entry struct {
	ProductID int64           `json:"product_id" validate:"gt=0"`
	Quantity  decimal.Decimal `json:"quantity"`
}
