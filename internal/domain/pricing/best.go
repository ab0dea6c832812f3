package pricing

import "github.com/shopspring/decimal"

// Offer — одно предложение поставщика по товару.
type Offer struct {
	SupplierID   int64
	SupplierCode string
	Metrics      LineMetrics
}

type Best struct {
	SupplierID   int64
	SupplierCode string
	Price        decimal.Decimal
	Found        bool
}

// SelectBest выбирает строгий минимум TotalPriceWithVAT среди сравнимых предложений.
// При равенстве побеждает меньший код поставщика, затем меньший id, так что порядок входа не важен.
func SelectBest(offers []Offer) Best {
	var best Best
	for _, o := range offers {
		if !o.Metrics.Priceable() {
			continue
		}
		if !best.Found || better(o, best) {
			best = Best{
				SupplierID:   o.SupplierID,
				SupplierCode: o.SupplierCode,
				Price:        o.Metrics.TotalPriceWithVAT,
				Found:        true,
			}
		}
	}
	return best
}

func better(o Offer, cur Best) bool {
	switch o.Metrics.TotalPriceWithVAT.Cmp(cur.Price) {
	case -1:
		return true
	case 1:
		return false
	}
	if o.SupplierCode != cur.SupplierCode {
		return o.SupplierCode < cur.SupplierCode
	}
	return o.SupplierID < cur.SupplierID
}
