package export

import (
	"bytes"
	"fmt"

	"github.com/Spok95/kitchen-quotes/internal/domain/comparison"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetMatrix    = "Comparison"
	SheetSuppliers = "Suppliers"
	SheetPriceList = "PriceList"
)

// MatrixWorkbook — матрица сравнения: строка на товар, по две колонки на КП
// (цена за единицу и сумма с НДС) и отдельный лист со сводкой по поставщикам.
func MatrixWorkbook(m *comparison.Matrix) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetMatrix); err != nil {
		return nil, err
	}

	header := []interface{}{"code", "name", "unit", "category", "quantity", "quantity_source"}
	for _, s := range m.Suppliers {
		label := s.Code
		if s.Region != "" {
			label = fmt.Sprintf("%s (%s)", s.Code, s.Region)
		}
		header = append(header, label+" price/unit", label+" total w/VAT")
	}
	header = append(header, "best_supplier", "best_price")
	if err := f.SetSheetRow(SheetMatrix, "A1", &header); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	codes := make(map[int64]string, len(m.Suppliers))
	column := make(map[int64]int, len(m.Suppliers))
	for i, s := range m.Suppliers {
		codes[s.SupplierID] = s.Code
		column[s.QuotationID] = i
	}

	for i, p := range m.Products {
		row := []interface{}{p.Code, p.Name, p.Unit, p.Category, nil, string(p.QuantitySource)}
		if p.HasQuantity {
			row[4] = num(p.Quantity)
		}
		prices := make([]interface{}, 2*len(m.Suppliers))
		for _, c := range p.Cells {
			j, ok := column[c.QuotationID]
			if !ok || !c.HasPrice {
				continue
			}
			prices[2*j] = num(c.PricePerUnit)
			if c.Priceable() {
				prices[2*j+1] = num(c.TotalPriceWithVAT)
			}
		}
		row = append(row, prices...)
		if p.BestSupplierID != nil {
			row = append(row, codes[*p.BestSupplierID], num(*p.BestPrice))
		}
		if err := setRow(f, SheetMatrix, i+2, row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(SheetSuppliers); err != nil {
		return nil, err
	}
	sh := []interface{}{"code", "name", "region", "status", "quoted", "total_products", "coverage_%", "best_prices", "total", "total_w_vat"}
	if err := f.SetSheetRow(SheetSuppliers, "A1", &sh); err != nil {
		return nil, err
	}
	for i, s := range m.Suppliers {
		row := []interface{}{
			s.Code, s.Name, s.Region, string(s.Status), s.QuotedProducts, s.TotalProducts,
			num(s.Coverage), s.BestPriceCount, num(s.TotalPrice), num(s.TotalPriceWithVAT),
		}
		if err := setRow(f, SheetSuppliers, i+2, row); err != nil {
			return nil, err
		}
	}
	return write(f)
}

// PriceListWorkbook — прайс кухни с итогом в последней строке.
func PriceListWorkbook(pl *comparison.PriceList) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetPriceList); err != nil {
		return nil, err
	}
	header := []interface{}{"code", "name", "unit", "category", "supplier", "approved_price", "vat_%", "quantity", "total_w_vat"}
	if err := f.SetSheetRow(SheetPriceList, "A1", &header); err != nil {
		return nil, err
	}
	r := 2
	for _, it := range pl.Items {
		row := []interface{}{it.Code, it.Name, it.Unit, it.Category, it.SupplierCode, num(it.ApprovedPrice), num(it.VATRate), nil, nil}
		if it.HasQuantity {
			row[7], row[8] = num(it.Quantity), num(it.TotalPriceWithVAT)
		}
		if err := setRow(f, SheetPriceList, r, row); err != nil {
			return nil, err
		}
		r++
	}
	total := []interface{}{"", "Итого", "", "", "", "", "", "", num(pl.Total)}
	if err := setRow(f, SheetPriceList, r, total); err != nil {
		return nil, err
	}
	return write(f)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func write(f *excelize.File) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// num — Excel хранит числа как float64; точные суммы остаются в JSON API.
func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
