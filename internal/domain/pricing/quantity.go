package pricing

import (
	"github.com/Spok95/kitchen-quotes/internal/domain/demand"
	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/shopspring/decimal"
)

type QuantitySource string

const (
	SourceKitchenDemand QuantitySource = "kitchen_demand"
	SourceBaseQuantity  QuantitySource = "base_quantity"
)

type ResolvedQuantity struct {
	Quantity decimal.Decimal `json:"quantity"`
	Source   QuantitySource  `json:"source"`
}

type demandKey struct {
	teamID    int64
	productID int64
	period    period.Token
}

// QuantityResolver — двухуровневый поиск количества: заявка кухни, затем каталог.
// Значения не смешиваются и не усредняются.
type QuantityResolver struct {
	demand map[demandKey]decimal.Decimal
	base   map[int64]decimal.Decimal
}

func NewQuantityResolver(demands []demand.Demand, base map[int64]decimal.Decimal) *QuantityResolver {
	r := &QuantityResolver{
		demand: make(map[demandKey]decimal.Decimal, len(demands)),
		base:   base,
	}
	for _, d := range demands {
		r.demand[demandKey{d.TeamID, d.ProductID, d.Period}] = d.Quantity
	}
	return r
}

// Resolve возвращает false, если количество не определено: такой товар не сравнивается.
// Неположительное значение считается отсутствующим. teamID=0 — без кухни, только каталог.
func (r *QuantityResolver) Resolve(productID, teamID int64, p period.Token) (ResolvedQuantity, bool) {
	if teamID != 0 {
		if q, ok := r.demand[demandKey{teamID, productID, p}]; ok && q.IsPositive() {
			return ResolvedQuantity{Quantity: q, Source: SourceKitchenDemand}, true
		}
	}
	if q, ok := r.base[productID]; ok && q.IsPositive() {
		return ResolvedQuantity{Quantity: q, Source: SourceBaseQuantity}, true
	}
	return ResolvedQuantity{}, false
}
