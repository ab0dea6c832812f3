package quotes

import (
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/Spok95/kitchen-quotes/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

var (
	// ErrConflict — состояние КП изменилось между чтением и записью. Можно перечитать и повторить,
	// но автоматически не повторяем.
	ErrConflict          = errors.New("quotation changed concurrently")
	ErrNotFound          = errors.New("quotation not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMalformedRow      = errors.New("malformed quotation row")
	// ErrAlreadyRecorded — утверждённая цена за (товар, поставщик, регион, период) уже в журнале.
	// Повтор не поможет.
	ErrAlreadyRecorded = errors.New("approved price already recorded")
)

// Quotation — КП одного поставщика на (регион, период).
type Quotation struct {
	ID           int64        `json:"id"`
	SupplierID   int64        `json:"supplierId"`
	SupplierCode string       `json:"supplierCode"`
	SupplierName string       `json:"supplierName"`
	Region       string       `json:"region"`
	Period       period.Token `json:"period"`
	Status       Status       `json:"status"`
	Version      int64        `json:"version"`
	CreatedBy    int64        `json:"createdBy,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	Items        []Item       `json:"items"`
}

// Item — строка КП по одному товару. Quantity — количество, указанное поставщиком;
// в сравнении используется количество из заявки кухни или каталога.
type Item struct {
	ID              int64            `json:"id"`
	QuotationID     int64            `json:"quotationId"`
	ProductID       int64            `json:"productId"`
	InitialPrice    *decimal.Decimal `json:"initialPrice"`
	NegotiatedPrice *decimal.Decimal `json:"negotiatedPrice"`
	ApprovedPrice   *decimal.Decimal `json:"approvedPrice"`
	VATRate         decimal.Decimal  `json:"vatRate"`
	Quantity        *decimal.Decimal `json:"quantity"`
}

func (i Item) Prices() pricing.Prices {
	return pricing.Prices{
		Initial:    i.InitialPrice,
		Negotiated: i.NegotiatedPrice,
		Approved:   i.ApprovedPrice,
		VATRate:    i.VATRate,
	}
}

func (q *Quotation) Item(id int64) (Item, bool) {
	for _, it := range q.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Line — строка выборки для сравнения: позиция вместе с заголовком КП и поставщиком.
type Line struct {
	Status       Status
	Version      int64
	UpdatedAt    time.Time
	SupplierID   int64
	SupplierCode string
	SupplierName string
	Region       string
	Period       period.Token
	Item
}

var (
	minVAT = decimal.Zero
	maxVAT = decimal.NewFromInt(100)
)

// ValidateLine — проверка строки на границе хранилища: дальше в движок идут только типизированные
// и корректные данные.
func ValidateLine(l Line) error {
	if !period.Valid(l.Period.String()) {
		return fmt.Errorf("%w: item %d: period %q", ErrMalformedRow, l.ID, l.Period)
	}
	if _, err := ParseStatus(string(l.Status)); err != nil {
		return fmt.Errorf("%w: item %d: %v", ErrMalformedRow, l.ID, err)
	}
	if l.VATRate.LessThan(minVAT) || l.VATRate.GreaterThan(maxVAT) {
		return fmt.Errorf("%w: item %d: vat rate %s outside [0,100]", ErrMalformedRow, l.ID, l.VATRate)
	}
	for name, p := range map[string]*decimal.Decimal{
		"initial":    l.InitialPrice,
		"negotiated": l.NegotiatedPrice,
		"approved":   l.ApprovedPrice,
	} {
		if p != nil && p.IsNegative() {
			return fmt.Errorf("%w: item %d: negative %s price", ErrMalformedRow, l.ID, name)
		}
	}
	if l.Quantity != nil && l.Quantity.IsNegative() {
		return fmt.Errorf("%w: item %d: negative quantity", ErrMalformedRow, l.ID)
	}
	return nil
}
