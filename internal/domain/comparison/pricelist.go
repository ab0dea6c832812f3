package comparison

import (
	"context"

	"github.com/Spok95/kitchen-quotes/internal/domain/catalog"
	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/Spok95/kitchen-quotes/internal/domain/pricing"
	"github.com/Spok95/kitchen-quotes/internal/domain/products"
	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// BuildPriceList читает только approvedPrice утверждённых КП: согласованные и начальные
// цены сюда не попадают. По каждому товару берётся самое дешёвое утверждённое предложение.
func BuildPriceList(ctx context.Context, team catalog.Team, p period.Token, prods []products.Product, lines []quotes.Line, qty *pricing.QuantityResolver) (*PriceList, error) {
	out := &PriceList{
		TeamID:   team.ID,
		TeamName: team.Name,
		Region:   team.Region,
		Period:   p.String(),
		Items:    []PriceListItem{},
	}

	approved := make(map[int64][]quotes.Line)
	for _, l := range lines {
		if l.Status != quotes.StatusApproved || l.ApprovedPrice == nil || l.Region != team.Region {
			continue
		}
		approved[l.ProductID] = append(approved[l.ProductID], l)
	}

	for _, prod := range prods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cands := approved[prod.ID]
		if len(cands) == 0 {
			continue
		}

		// выбор по цене за единицу с НДС: порядок тот же при любом положительном количестве
		offers := make([]pricing.Offer, 0, len(cands))
		for _, l := range cands {
			offers = append(offers, pricing.Offer{
				SupplierID:   l.SupplierID,
				SupplierCode: l.SupplierCode,
				Metrics:      pricing.ComputeMetrics(approvedOnly(l), one),
			})
		}
		best := pricing.SelectBest(offers)
		if !best.Found {
			continue
		}
		var win quotes.Line
		for _, l := range cands {
			if l.SupplierID == best.SupplierID {
				win = l
				break
			}
		}

		item := PriceListItem{
			ProductID:     prod.ID,
			Code:          prod.Code,
			Name:          prod.Name,
			Unit:          string(prod.Unit),
			Category:      prod.Category,
			SupplierID:    win.SupplierID,
			SupplierCode:  win.SupplierCode,
			SupplierName:  win.SupplierName,
			QuotationID:   win.QuotationID,
			ApprovedPrice: *win.ApprovedPrice,
			VATRate:       win.VATRate,
		}
		if q, ok := qty.Resolve(prod.ID, team.ID, p); ok {
			item.HasQuantity, item.Quantity, item.QuantitySource = true, q.Quantity, q.Source
			item.LineMetrics = pricing.ComputeMetrics(approvedOnly(win), q.Quantity)
			out.Total = out.Total.Add(item.TotalPriceWithVAT)
		} else {
			item.LineMetrics = pricing.LineMetrics{PricePerUnit: *win.ApprovedPrice, HasPrice: true, PriceType: pricing.PriceApproved}
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func approvedOnly(l quotes.Line) pricing.Prices {
	return pricing.Prices{Approved: l.ApprovedPrice, VATRate: l.VATRate}
}
