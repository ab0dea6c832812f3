package comparison

import (
	"context"
	"sort"

	"github.com/Spok95/kitchen-quotes/internal/domain/history"
	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/Spok95/kitchen-quotes/internal/domain/pricing"
	"github.com/Spok95/kitchen-quotes/internal/domain/products"
	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/shopspring/decimal"
)

// Input — всё, что нужно сборщику; он ничего не читает сам и ничего не пишет.
type Input struct {
	Period     period.Token
	Region     string
	TeamID     int64
	Products   []products.Product
	Lines      []quotes.Line
	Quantities *pricing.QuantityResolver
	Previous   map[history.Key]decimal.Decimal
}

type productState struct {
	product products.Product
	qty     pricing.ResolvedQuantity
	hasQty  bool
	// самая низкая начальная цена среди поставщиков, по региону КП
	lowest map[string]*decimal.Decimal
	// quotation id → индекс ячейки в строке
	cellByQ map[int64]int
}

// Assemble строит матрицу товар × КП поставщика и сводку регион → категория → поставщик.
// Отменённые КП не участвуют. Прерывается по ctx между товарами.
func Assemble(ctx context.Context, in Input) (*Matrix, error) {
	m := &Matrix{
		Period:    in.Period.String(),
		Region:    in.Region,
		Products:  make([]ProductRow, 0, len(in.Products)),
		Suppliers: []SupplierSummary{},
	}

	inScope := make(map[int64]bool, len(in.Products))
	for _, p := range in.Products {
		inScope[p.ID] = true
	}

	byProduct := make(map[int64][]quotes.Line)
	columns := make(map[int64]*SupplierSummary)
	for _, l := range in.Lines {
		if l.Status == quotes.StatusCancelled || !inScope[l.ProductID] {
			continue
		}
		byProduct[l.ProductID] = append(byProduct[l.ProductID], l)
		if _, ok := columns[l.QuotationID]; !ok {
			columns[l.QuotationID] = &SupplierSummary{
				SupplierID:  l.SupplierID,
				Code:        l.SupplierCode,
				Name:        l.SupplierName,
				Region:      l.Region,
				QuotationID: l.QuotationID,
				Status:      l.Status,
				Version:     l.Version,
				UpdatedAt:   l.UpdatedAt,
			}
		}
	}
	order := sortedColumns(columns)
	position := make(map[int64]int, len(order))
	for i, c := range order {
		position[c.QuotationID] = i
	}

	states := make([]productState, 0, len(in.Products))
	for _, p := range in.Products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, st := buildRow(in, p, byProduct[p.ID], position)
		for _, c := range order {
			if p.VisibleIn(c.Region) {
				c.TotalProducts++
			}
		}
		for _, cell := range row.Cells {
			col := columns[cell.QuotationID]
			if cell.HasPrice {
				col.QuotedProducts++
			}
			if st.hasQty && cell.Priceable() {
				col.TotalPrice = col.TotalPrice.Add(cell.TotalPrice)
				col.TotalPriceWithVAT = col.TotalPriceWithVAT.Add(cell.TotalPriceWithVAT)
			}
			if cell.IsBest {
				col.BestPriceCount++
			}
		}
		m.Products = append(m.Products, row)
		states = append(states, st)
	}

	for _, c := range order {
		c.Coverage = pricing.Percent(decimal.NewFromInt(int64(c.QuotedProducts)), decimal.NewFromInt(int64(c.TotalProducts)))
		m.Suppliers = append(m.Suppliers, *c)
	}
	m.GroupedOverview = overview(in, m.Products, states, order)
	return m, nil
}

func sortedColumns(columns map[int64]*SupplierSummary) []*SupplierSummary {
	out := make([]*SupplierSummary, 0, len(columns))
	for _, c := range columns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.QuotationID < b.QuotationID
	})
	return out
}

func buildRow(in Input, p products.Product, lines []quotes.Line, position map[int64]int) (ProductRow, productState) {
	st := productState{product: p, lowest: map[string]*decimal.Decimal{}, cellByQ: make(map[int64]int, len(lines))}
	if in.Quantities != nil {
		st.qty, st.hasQty = in.Quantities.Resolve(p.ID, in.TeamID, in.Period)
	}

	row := ProductRow{
		ProductID:   p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Unit:        string(p.Unit),
		Category:    p.Category,
		Region:      p.Region,
		HasQuantity: st.hasQty,
		BasePrice:   p.BasePrice,
		Cells:       make([]SupplierCell, 0, len(lines)),
	}
	if st.hasQty {
		row.Quantity = st.qty.Quantity
		row.QuantitySource = st.qty.Source
	}

	sort.SliceStable(lines, func(i, j int) bool { return position[lines[i].QuotationID] < position[lines[j].QuotationID] })

	// лучшая цена и базовая цена считаются внутри региона: КП разных регионов не конкурируют
	offers := map[string][]pricing.Offer{}
	regionOf := make([]string, 0, len(lines))
	for _, l := range lines {
		cell := SupplierCell{
			SupplierID:      l.SupplierID,
			QuotationID:     l.QuotationID,
			ItemID:          l.ID,
			Status:          l.Status,
			InitialPrice:    l.InitialPrice,
			NegotiatedPrice: l.NegotiatedPrice,
			ApprovedPrice:   l.ApprovedPrice,
			VATRate:         l.VATRate,
			QuotedQuantity:  l.Quantity,
		}
		if st.hasQty {
			cell.LineMetrics = pricing.ComputeMetrics(l.Prices(), st.qty.Quantity)
			offers[l.Region] = append(offers[l.Region], pricing.Offer{SupplierID: l.SupplierID, SupplierCode: l.SupplierCode, Metrics: cell.LineMetrics})
		} else if unit, pt, ok := l.Prices().EffectivePrice(); ok {
			// без количества — только цена за единицу
			cell.LineMetrics = pricing.LineMetrics{PricePerUnit: unit, HasPrice: true, PriceType: pt}
		}
		if cell.HasPrice {
			row.QuotedCount++
		}
		if low := st.lowest[l.Region]; l.InitialPrice != nil && l.InitialPrice.IsPositive() && (low == nil || l.InitialPrice.LessThan(*low)) {
			st.lowest[l.Region] = l.InitialPrice
		}
		cell.VsPrevious = previous(in.Previous, p.ID, cell)

		st.cellByQ[l.QuotationID] = len(row.Cells)
		row.Cells = append(row.Cells, cell)
		regionOf = append(regionOf, l.Region)
	}

	winners := make([]pricing.Offer, 0, len(offers))
	for region, list := range offers {
		best := pricing.SelectBest(list)
		if !best.Found {
			continue
		}
		for i := range row.Cells {
			c := &row.Cells[i]
			if regionOf[i] == region && c.SupplierID == best.SupplierID && c.Priceable() && c.TotalPriceWithVAT.Equal(best.Price) {
				c.IsBest = true
				winners = append(winners, pricing.Offer{SupplierID: best.SupplierID, SupplierCode: best.SupplierCode, Metrics: c.LineMetrics})
				break
			}
		}
	}
	// в строке — самый дешёвый из победителей регионов
	if best := pricing.SelectBest(winners); best.Found {
		id, price := best.SupplierID, best.Price
		row.BestSupplierID, row.BestPrice = &id, &price
	}
	return row, st
}

func previous(prev map[history.Key]decimal.Decimal, productID int64, cell SupplierCell) PreviousPrice {
	price, ok := prev[history.Key{ProductID: productID, SupplierID: cell.SupplierID}]
	if !ok {
		return PreviousPrice{}
	}
	out := PreviousPrice{HasPreviousData: true, PreviousPrice: &price}
	if cell.HasPrice {
		v := pricing.Compare(cell.PricePerUnit, price)
		out.Difference, out.Percentage = v.Difference, v.Percentage
	}
	return out
}

func overview(in Input, rows []ProductRow, states []productState, columns []*SupplierSummary) Overview {
	regionSet := map[string]bool{}
	if in.Region != "" {
		regionSet[in.Region] = true
	}
	for _, c := range columns {
		regionSet[c.Region] = true
	}
	regions := make([]string, 0, len(regionSet))
	for r := range regionSet {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	out := Overview{Regions: make([]RegionGroup, 0, len(regions))}
	for _, region := range regions {
		byCategory := map[string][]int{}
		for i, st := range states {
			if st.product.VisibleIn(region) {
				byCategory[st.product.Category] = append(byCategory[st.product.Category], i)
			}
		}
		cats := make([]string, 0, len(byCategory))
		for c := range byCategory {
			cats = append(cats, c)
		}
		sort.Strings(cats)

		group := RegionGroup{Region: region, Categories: make([]CategoryGroup, 0, len(cats))}
		for _, cat := range cats {
			idx := byCategory[cat]
			cg := CategoryGroup{Category: cat, TotalProducts: len(idx), SupplierPerformances: []SupplierPerformance{}}
			for _, col := range columns {
				if col.Region != region {
					continue
				}
				cg.SupplierPerformances = append(cg.SupplierPerformances, performance(in, rows, states, idx, col))
			}
			group.Categories = append(group.Categories, cg)
		}
		out.Regions = append(out.Regions, group)
	}
	return out
}

func performance(in Input, rows []ProductRow, states []productState, idx []int, col *SupplierSummary) SupplierPerformance {
	sp := SupplierPerformance{
		SupplierID:  col.SupplierID,
		Code:        col.Code,
		Name:        col.Name,
		QuotationID: col.QuotationID,
		Status:      col.Status,
	}
	var lines []pricing.VarianceLine
	for _, i := range idx {
		st := states[i]
		ci, ok := st.cellByQ[col.QuotationID]
		if !ok {
			continue
		}
		cell := rows[i].Cells[ci]
		if cell.HasPrice {
			sp.QuotedProducts++
		}
		if cell.IsBest {
			sp.BestPriceCount++
		}
		if !st.hasQty || !cell.Priceable() {
			continue
		}
		sp.TotalPrice = sp.TotalPrice.Add(cell.TotalPrice)
		sp.TotalPriceWithVAT = sp.TotalPriceWithVAT.Add(cell.TotalPriceWithVAT)

		vl := pricing.VarianceLine{
			Quantity:      st.qty.Quantity,
			Current:       cell.PricePerUnit,
			LowestInitial: st.lowest[col.Region],
			OwnInitial:    cell.InitialPrice,
			Catalog:       st.product.BasePrice,
		}
		if prev, ok := in.Previous[history.Key{ProductID: st.product.ID, SupplierID: col.SupplierID}]; ok {
			vl.Previous = &prev
		}
		lines = append(lines, vl)
	}
	sp.Coverage = pricing.Percent(decimal.NewFromInt(int64(sp.QuotedProducts)), decimal.NewFromInt(int64(len(idx))))
	sp.SliceVariance = pricing.AggregateVariance(lines)
	return sp
}
