package quotes_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Spok95/kitchen-quotes/internal/domain/history"
	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/shopspring/decimal"
)

// memStore — хранилище в памяти с той же семантикой, что и pgx Repo:
// команда применяется к копии и публикуется целиком, или не применяется вовсе.
type memStore struct {
	mu      sync.Mutex
	q       map[int64]*quotes.Quotation
	history []history.Entry

	failOnItem int64 // имитация сбоя посреди пакета
	afterRead  func(id int64)
	calls      int
}

func newMemStore(qs ...*quotes.Quotation) *memStore {
	s := &memStore{q: map[int64]*quotes.Quotation{}}
	for _, q := range qs {
		s.q[q.ID] = q
	}
	return s
}

func clone(q *quotes.Quotation) *quotes.Quotation {
	c := *q
	c.Items = append([]quotes.Item(nil), q.Items...)
	return &c
}

func (s *memStore) GetQuotation(_ context.Context, id int64) (*quotes.Quotation, bool, error) {
	s.mu.Lock()
	q, ok := s.q[id]
	if ok {
		q = clone(q)
	}
	s.mu.Unlock()
	if s.afterRead != nil {
		s.afterRead(id)
	}
	return q, ok, nil
}

func (s *memStore) FindQuotationID(_ context.Context, supplierID int64, region string, p period.Token) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.q {
		if q.SupplierID == supplierID && q.Region == region && q.Period == p {
			return q.ID, true, nil
		}
	}
	return 0, false, nil
}

func (s *memStore) begin(g quotes.Guard) (*quotes.Quotation, error) {
	cur, ok := s.q[g.QuotationID]
	if !ok || cur.Status != g.ExpectedStatus || cur.Version != g.ExpectedVersion {
		return nil, fmt.Errorf("%w: quotation %d", quotes.ErrConflict, g.QuotationID)
	}
	return clone(cur), nil
}

func setPrices(q *quotes.Quotation, prices map[int64]decimal.Decimal, fail int64, set func(*quotes.Item, decimal.Decimal)) error {
	for id, p := range prices {
		if id == fail {
			return errors.New("disk full")
		}
		found := false
		for i := range q.Items {
			if q.Items[i].ID == id {
				set(&q.Items[i], p)
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%w: item %d", quotes.ErrConflict, id)
		}
	}
	return nil
}

func (s *memStore) SaveNegotiation(_ context.Context, cmd quotes.NegotiationCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	next, err := s.begin(cmd.Guard)
	if err != nil {
		return err
	}
	if err := setPrices(next, cmd.Prices, s.failOnItem, func(it *quotes.Item, p decimal.Decimal) { it.NegotiatedPrice = &p }); err != nil {
		return err
	}
	next.Status, next.Version = quotes.StatusNegotiation, next.Version+1
	s.q[next.ID] = next
	return nil
}

func (s *memStore) ApproveQuotationBatch(_ context.Context, cmd quotes.ApprovalCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	next, err := s.begin(cmd.Guard)
	if err != nil {
		return err
	}
	if err := setPrices(next, cmd.Prices, s.failOnItem, func(it *quotes.Item, p decimal.Decimal) { it.ApprovedPrice = &p }); err != nil {
		return err
	}
	for _, e := range cmd.History {
		for _, h := range s.history {
			if h.ProductID == e.ProductID && h.SupplierID == e.SupplierID && h.Region == e.Region && h.Period == e.Period && h.PriceType == e.PriceType {
				return fmt.Errorf("%w: duplicate history", quotes.ErrAlreadyRecorded)
			}
		}
	}
	next.Status, next.Version = quotes.StatusApproved, next.Version+1
	s.q[next.ID] = next
	s.history = append(s.history, cmd.History...)
	return nil
}

func (s *memStore) Cancel(_ context.Context, cmd quotes.CancelCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	next, err := s.begin(cmd.Guard)
	if err != nil {
		return err
	}
	next.Status, next.Version = quotes.StatusCancelled, next.Version+1
	s.q[next.ID] = next
	return nil
}

// bump меняет версию КП снаружи, как параллельный запрос.
func (s *memStore) bump(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.q[id].Version++
}

func (s *memStore) snapshot(id int64) *quotes.Quotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.q[id])
}
