package comparison

import (
	"time"

	"github.com/Spok95/kitchen-quotes/internal/domain/pricing"
	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/shopspring/decimal"
)

// Selection — параметры матрицы сравнения.
type Selection struct {
	Period     string   `json:"period" validate:"required,period"`
	Region     string   `json:"region"`
	Categories []string `json:"categories"`
	TeamID     int64    `json:"team_id" validate:"gte=0"`
}

type Matrix struct {
	Period          string            `json:"period"`
	Region          string            `json:"region"`
	Products        []ProductRow      `json:"products"`
	Suppliers       []SupplierSummary `json:"suppliers"`
	GroupedOverview Overview          `json:"groupedOverview"`
}

type ProductRow struct {
	ProductID      int64                  `json:"productId"`
	Code           string                 `json:"code"`
	Name           string                 `json:"name"`
	Unit           string                 `json:"unit"`
	Category       string                 `json:"category"`
	Region         string                 `json:"region,omitempty"`
	HasQuantity    bool                   `json:"hasQuantity"`
	Quantity       decimal.Decimal        `json:"quantity"`
	QuantitySource pricing.QuantitySource `json:"quantitySource,omitempty"`
	BasePrice      *decimal.Decimal       `json:"basePrice"`
	QuotedCount    int                    `json:"quotedCount"`
	BestSupplierID *int64                 `json:"bestSupplierId"`
	BestPrice      *decimal.Decimal       `json:"bestPrice"`
	Cells          []SupplierCell         `json:"suppliers"`
}

type SupplierCell struct {
	SupplierID      int64            `json:"supplierId"`
	QuotationID     int64            `json:"quotationId"`
	ItemID          int64            `json:"itemId"`
	Status          quotes.Status    `json:"status"`
	InitialPrice    *decimal.Decimal `json:"initialPrice"`
	NegotiatedPrice *decimal.Decimal `json:"negotiatedPrice"`
	ApprovedPrice   *decimal.Decimal `json:"approvedPrice"`
	VATRate         decimal.Decimal  `json:"vatRate"`
	QuotedQuantity  *decimal.Decimal `json:"quotedQuantity"`
	pricing.LineMetrics
	IsBest     bool          `json:"isBest"`
	VsPrevious PreviousPrice `json:"comparisonVsPrevious"`
}

// PreviousPrice — сравнение цены за единицу с последней утверждённой в прошлых периодах.
type PreviousPrice struct {
	HasPreviousData bool             `json:"hasPreviousData"`
	PreviousPrice   *decimal.Decimal `json:"previousPrice"`
	Difference      decimal.Decimal  `json:"difference"`
	Percentage      decimal.Decimal  `json:"percentage"`
}

// SupplierSummary — колонка матрицы: одно КП поставщика со статусом для UI.
type SupplierSummary struct {
	SupplierID        int64           `json:"supplierId"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Region            string          `json:"region"`
	QuotationID       int64           `json:"quotationId"`
	Status            quotes.Status   `json:"status"`
	Version           int64           `json:"version"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	QuotedProducts    int             `json:"quotedProducts"`
	TotalProducts     int             `json:"totalProducts"`
	Coverage          decimal.Decimal `json:"coverage"`
	BestPriceCount    int             `json:"bestPriceCount"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	TotalPriceWithVAT decimal.Decimal `json:"totalPriceWithVAT"`
}

type Overview struct {
	Regions []RegionGroup `json:"regions"`
}

type RegionGroup struct {
	Region     string          `json:"region"`
	Categories []CategoryGroup `json:"categories"`
}

type CategoryGroup struct {
	Category             string                `json:"category"`
	TotalProducts        int                   `json:"totalProducts"`
	SupplierPerformances []SupplierPerformance `json:"supplierPerformances"`
}

type SupplierPerformance struct {
	SupplierID        int64           `json:"supplierId"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	QuotationID       int64           `json:"quotationId"`
	Status            quotes.Status   `json:"status"`
	QuotedProducts    int             `json:"quotedProducts"`
	Coverage          decimal.Decimal `json:"coverage"`
	BestPriceCount    int             `json:"bestPriceCount"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	TotalPriceWithVAT decimal.Decimal `json:"totalPriceWithVAT"`
	pricing.SliceVariance
}

// PriceList — только утверждённые цены для одной кухни и периода.
type PriceList struct {
	TeamID   int64           `json:"teamId"`
	TeamName string          `json:"teamName"`
	Region   string          `json:"region"`
	Period   string          `json:"period"`
	Items    []PriceListItem `json:"items"`
	Total    decimal.Decimal `json:"totalPriceWithVAT"`
}

type PriceListItem struct {
	ProductID      int64                  `json:"productId"`
	Code           string                 `json:"code"`
	Name           string                 `json:"name"`
	Unit           string                 `json:"unit"`
	Category       string                 `json:"category"`
	SupplierID     int64                  `json:"supplierId"`
	SupplierCode   string                 `json:"supplierCode"`
	SupplierName   string                 `json:"supplierName"`
	QuotationID    int64                  `json:"quotationId"`
	ApprovedPrice  decimal.Decimal        `json:"approvedPrice"`
	VATRate        decimal.Decimal        `json:"vatRate"`
	HasQuantity    bool                   `json:"hasQuantity"`
	Quantity       decimal.Decimal        `json:"quantity"`
	QuantitySource pricing.QuantitySource `json:"quantitySource,omitempty"`
	pricing.LineMetrics
}
