package pricing

import "github.com/shopspring/decimal"

// Percent — единственное место расчёта процента: baseline<=0 даёт 0, округление до 2 знаков.
func Percent(diff, baseline decimal.Decimal) decimal.Decimal {
	if !baseline.IsPositive() {
		return decimal.Zero
	}
	return diff.Mul(hundred).DivRound(baseline, 2)
}

type Variance struct {
	Difference decimal.Decimal `json:"difference"`
	Percentage decimal.Decimal `json:"percentage"`
}

func Compare(current, baseline decimal.Decimal) Variance {
	diff := current.Sub(baseline)
	return Variance{Difference: diff, Percentage: Percent(diff, baseline)}
}

// Comparison — сравнение суммы с одной базой. HasData=false — базы нет ни для одного товара.
type Comparison struct {
	HasData  bool            `json:"hasData"`
	Current  decimal.Decimal `json:"current"`
	Baseline decimal.Decimal `json:"baseline"`
	Variance
}

type accumulator struct {
	has      bool
	current  decimal.Decimal
	baseline decimal.Decimal
}

func (a *accumulator) add(qty, current decimal.Decimal, baseline *decimal.Decimal) {
	if baseline == nil {
		return
	}
	a.has = true
	a.current = a.current.Add(qty.Mul(current))
	a.baseline = a.baseline.Add(qty.Mul(*baseline))
}

func (a accumulator) result() Comparison {
	if !a.has {
		return Comparison{}
	}
	return Comparison{
		HasData:  true,
		Current:  a.current,
		Baseline: a.baseline,
		Variance: Compare(a.current, a.baseline),
	}
}

// VarianceLine — одна строка поставщика в срезе категория/регион, все цены за единицу.
type VarianceLine struct {
	Quantity      decimal.Decimal
	Current       decimal.Decimal  // действующая цена поставщика
	LowestInitial *decimal.Decimal // самая низкая начальная цена среди всех поставщиков
	Previous      *decimal.Decimal // последняя утверждённая цена прошлых периодов
	OwnInitial    *decimal.Decimal // начальная цена самого поставщика
	Catalog       *decimal.Decimal // Product.BasePrice
}

type SliceVariance struct {
	Current    decimal.Decimal `json:"current"`
	VsBase     Comparison      `json:"vsBase"`
	VsPrevious Comparison      `json:"vsPrevious"`
	VsInitial  Comparison      `json:"vsInitial"`
	VsCatalog  Comparison      `json:"vsCatalog"`
}

// AggregateVariance суммирует срез. Каждая пара (текущее, база) считается
// по одному и тому же подмножеству товаров — тем, где база известна.
func AggregateVariance(lines []VarianceLine) SliceVariance {
	var (
		out                          SliceVariance
		base, prev, initial, catalog accumulator
	)
	for _, l := range lines {
		out.Current = out.Current.Add(l.Quantity.Mul(l.Current))
		base.add(l.Quantity, l.Current, l.LowestInitial)
		prev.add(l.Quantity, l.Current, l.Previous)
		initial.add(l.Quantity, l.Current, l.OwnInitial)
		catalog.add(l.Quantity, l.Current, l.Catalog)
	}
	out.VsBase = base.result()
	out.VsPrevious = prev.result()
	out.VsInitial = initial.result()
	out.VsCatalog = catalog.result()
	return out
}
