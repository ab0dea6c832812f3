package export_test

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/Spok95/kitchen-quotes/internal/domain/comparison"
	"github.com/Spok95/kitchen-quotes/internal/domain/pricing"
	"github.com/Spok95/kitchen-quotes/internal/domain/products"
	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/Spok95/kitchen-quotes/internal/infra/export"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func dp(v int64) *decimal.Decimal {
	x := decimal.NewFromInt(v)
	return &x
}

func quoteLine(qid, supplierID int64, code string, price int64) quotes.Line {
	return quotes.Line{
		Status: quotes.StatusPending, Version: 1, SupplierID: supplierID, SupplierCode: code,
		Region: "Hà Nội", Period: "2024-05-01",
		Item: quotes.Item{ID: qid, QuotationID: qid, ProductID: 1, InitialPrice: dp(price), VATRate: decimal.NewFromInt(10)},
	}
}

func open(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("rows of %s: %v", sheet, err)
	}
	return rows
}

func number(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("not a number: %q", s)
	}
	return v
}

func TestMatrixWorkbook(t *testing.T) {
	m, err := comparison.Assemble(context.Background(), comparison.Input{
		Period:     "2024-05-01",
		Region:     "Hà Nội",
		Products:   []products.Product{{ID: 1, Code: "VEG-01", Name: "Cà chua", Unit: products.UnitKg, Category: "Rau"}},
		Lines:      []quotes.Line{quoteLine(1, 1, "A", 100000), quoteLine(2, 2, "B", 95000)},
		Quantities: pricing.NewQuantityResolver(nil, map[int64]decimal.Decimal{1: decimal.NewFromInt(10)}),
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	data, err := export.MatrixWorkbook(m)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	rows := open(t, data, export.SheetMatrix)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	header, row := rows[0], rows[1]
	if header[6] != "A (Hà Nội) price/unit" || header[9] != "B (Hà Nội) total w/VAT" {
		t.Fatalf("header = %v", header)
	}
	if row[0] != "VEG-01" || row[1] != "Cà chua" {
		t.Fatalf("row = %v", row)
	}
	if got := number(t, row[9]); got != 1045000 {
		t.Fatalf("B total = %v", got)
	}
	if row[10] != "B" || number(t, row[11]) != 1045000 {
		t.Fatalf("best = %v %v", row[10], row[11])
	}

	sup := open(t, data, export.SheetSuppliers)
	if len(sup) != 3 || sup[1][0] != "A" || sup[2][0] != "B" {
		t.Fatalf("suppliers = %v", sup)
	}
}

func TestPriceListWorkbook(t *testing.T) {
	pl := &comparison.PriceList{
		TeamName: "Bếp Hoàn Kiếm",
		Period:   "2024-05-01",
		Items: []comparison.PriceListItem{{
			Code: "VEG-01", Name: "Cà chua", Unit: "kg", SupplierCode: "A",
			ApprovedPrice: decimal.NewFromInt(100), VATRate: decimal.NewFromInt(10),
			HasQuantity: true, Quantity: decimal.NewFromInt(3),
			LineMetrics: pricing.LineMetrics{TotalPriceWithVAT: decimal.NewFromInt(330), HasPrice: true},
		}},
		Total: decimal.NewFromInt(330),
	}
	data, err := export.PriceListWorkbook(pl)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows := open(t, data, export.SheetPriceList)
	if len(rows) != 3 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[1][4] != "A" || number(t, rows[1][5]) != 100 {
		t.Fatalf("item row = %v", rows[1])
	}
	if rows[2][1] != "Итого" || number(t, rows[2][8]) != 330 {
		t.Fatalf("total row = %v", rows[2])
	}
}
