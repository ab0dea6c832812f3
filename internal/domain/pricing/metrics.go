package pricing

import "github.com/shopspring/decimal"

type PriceType string

const (
	PriceNone       PriceType = ""
	PriceInitial    PriceType = "initial"
	PriceNegotiated PriceType = "negotiated"
	PriceApproved   PriceType = "approved"
)

var hundred = decimal.NewFromInt(100)

// Prices — три цены строки предложения и ставка НДС в процентах [0, 100].
type Prices struct {
	Initial    *decimal.Decimal
	Negotiated *decimal.Decimal
	Approved   *decimal.Decimal
	VATRate    decimal.Decimal
}

// EffectivePrice: утверждённая > согласованная > начальная. ok=false — цены нет вовсе.
func (p Prices) EffectivePrice() (decimal.Decimal, PriceType, bool) {
	switch {
	case p.Approved != nil:
		return *p.Approved, PriceApproved, true
	case p.Negotiated != nil:
		return *p.Negotiated, PriceNegotiated, true
	case p.Initial != nil:
		return *p.Initial, PriceInitial, true
	}
	return decimal.Zero, PriceNone, false
}

type LineMetrics struct {
	PricePerUnit      decimal.Decimal `json:"pricePerUnit"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	VATAmount         decimal.Decimal `json:"vatAmount"`
	TotalPriceWithVAT decimal.Decimal `json:"totalPriceWithVAT"`
	HasPrice          bool            `json:"hasPrice"`
	PriceType         PriceType       `json:"priceType,omitempty"`
}

// ComputeMetrics считает итог строки. Без цены — HasPrice=false и нулевые суммы.
func ComputeMetrics(p Prices, qty decimal.Decimal) LineMetrics {
	unit, pt, ok := p.EffectivePrice()
	if !ok {
		return LineMetrics{}
	}
	total := unit.Mul(qty)
	vat := total.Mul(p.VATRate).DivRound(hundred, 4)
	return LineMetrics{
		PricePerUnit:      unit,
		TotalPrice:        total,
		VATAmount:         vat,
		TotalPriceWithVAT: total.Add(vat),
		HasPrice:          true,
		PriceType:         pt,
	}
}

// Priceable — строку можно сравнивать: цена есть и итог с НДС положительный.
func (m LineMetrics) Priceable() bool {
	return m.HasPrice && m.TotalPriceWithVAT.IsPositive()
}
