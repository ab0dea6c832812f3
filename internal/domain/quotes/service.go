package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/Spok95/kitchen-quotes/internal/domain/history"
	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/Spok95/kitchen-quotes/internal/domain/suppliers"
	"github.com/Spok95/kitchen-quotes/internal/validation"
	"github.com/shopspring/decimal"
)

// Store — командная сторона хранилища. Каждая команда атомарна и выполняется
// только если статус и версия КП совпадают с прочитанными, иначе ErrConflict.
type Store interface {
	GetQuotation(ctx context.Context, id int64) (*Quotation, bool, error)
	FindQuotationID(ctx context.Context, supplierID int64, region string, p period.Token) (int64, bool, error)
	SaveNegotiation(ctx context.Context, cmd NegotiationCommand) error
	ApproveQuotationBatch(ctx context.Context, cmd ApprovalCommand) error
	Cancel(ctx context.Context, cmd CancelCommand) error
}

// Guard — ожидаемое состояние КП для оптимистичной проверки.
type Guard struct {
	QuotationID     int64
	ExpectedStatus  Status
	ExpectedVersion int64
}

type NegotiationCommand struct {
	Guard
	Prices map[int64]decimal.Decimal // item id → согласованная цена
}

type ApprovalCommand struct {
	Guard
	Prices     map[int64]decimal.Decimal // item id → утверждённая цена
	History    []history.Entry
	ApprovedBy int64
}

type CancelCommand struct {
	Guard
	CancelledBy int64
}

// Locker — необязательная распределённая блокировка на утверждение одного КП.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ErrLocked is returned by a Locker when another holder owns the key.
var ErrLocked = errors.New("lock is held by another request")

type Notifier interface {
	QuotationApproved(ctx context.Context, a Approval) error
}

type Recorder interface {
	ApprovalOutcome(outcome Outcome)
	Transition(from, to Status)
}

type SupplierSource interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]suppliers.Supplier, error)
}

// Approval — событие после успешной фиксации.
type Approval struct {
	QuotationID  int64
	SupplierCode string
	SupplierName string
	Region       string
	Period       period.Token
	Items        int
	ApprovedBy   int64
}

type Outcome string

const (
	OutcomeApproved  Outcome = "approved"
	OutcomeConflict  Outcome = "conflict"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeForbidden Outcome = "forbidden"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeFailed    Outcome = "failed"
)

// OutcomeOf maps an approval error to its stable discriminant.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeApproved
	}
	if _, ok := validation.As(err); ok {
		return OutcomeInvalid
	}
	switch {
	case errors.Is(err, ErrConflict):
		return OutcomeConflict
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrAlreadyRecorded):
		return OutcomeInvalid
	case errors.Is(err, access.ErrForbidden):
		return OutcomeForbidden
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	}
	return OutcomeFailed
}

type Service struct {
	store     Store
	suppliers SupplierSource
	locker    Locker
	notifier  Notifier
	recorder  Recorder
	log       *slog.Logger
}

type Option func(*Service)

func WithLocker(l Locker) Option { return func(s *Service) { s.locker = l } }
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }
func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }
func WithSuppliers(src SupplierSource) Option { return func(s *Service) { s.suppliers = src } }

func NewService(store Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// load всегда читает КП заново: состояние между запросами не кэшируется.
func (s *Service) load(ctx context.Context, actor access.Actor, id int64) (*Quotation, error) {
	q, found, err := s.store.GetQuotation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation %d: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if !actor.Scope.Allows(q.Region) {
		return nil, fmt.Errorf("%w: quotation %d is outside the actor's region", access.ErrForbidden, id)
	}
	return q, nil
}

// Get — КП с позициями для просмотра.
func (s *Service) Get(ctx context.Context, actor access.Actor, id int64) (*Quotation, error) {
	if err := actor.Require(access.CapViewQuotes); err != nil {
		return nil, err
	}
	return s.load(ctx, actor, id)
}

type NegotiatedPrice struct {
	ItemID int64           `json:"item_id" validate:"gt=0"`
	Price  decimal.Decimal `json:"price"`
}

// Negotiate записывает согласованные цены и переводит КП в negotiation.
// Повторный торг в статусе negotiation допустим.
func (s *Service) Negotiate(ctx context.Context, actor access.Actor, quotationID int64, prices []NegotiatedPrice) (*Quotation, error) {
	if err := actor.Require(access.CapNegotiateQuotes); err != nil {
		return nil, err
	}
	ve := &validation.Errors{}
	if len(prices) == 0 {
		ve.Add("items", "must contain at least 1 item(s)")
	}
	for i, p := range prices {
		validation.PositiveDecimal(ve, fmt.Sprintf("items[%d].price", i), p.Price)
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	q, err := s.load(ctx, actor, quotationID)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusNegotiation {
		if err := Transition(q.Status, StatusNegotiation); err != nil {
			return nil, err
		}
	}

	cmd := NegotiationCommand{
		Guard:  Guard{QuotationID: q.ID, ExpectedStatus: q.Status, ExpectedVersion: q.Version},
		Prices: make(map[int64]decimal.Decimal, len(prices)),
	}
	for i, p := range prices {
		if _, ok := q.Item(p.ItemID); !ok {
			ve.Add(fmt.Sprintf("items[%d].item_id", i), fmt.Sprintf("item %d does not belong to quotation %d", p.ItemID, q.ID))
			continue
		}
		cmd.Prices[p.ItemID] = p.Price
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	if err := s.store.SaveNegotiation(ctx, cmd); err != nil {
		return nil, fmt.Errorf("save negotiation %d: %w", q.ID, err)
	}
	s.transitioned(q.Status, StatusNegotiation)
	s.log.Info("quotation negotiated", "quotation_id", q.ID, "items", len(cmd.Prices), "user_id", actor.UserID)
	return s.reload(ctx, q.ID)
}

type ApproveRequest struct {
	QuotationID int64
	ItemIDs     []int64 // пусто — все позиции КП
}

// Approve фиксирует действующие цены выбранных позиций одной атомарной командой.
func (s *Service) Approve(ctx context.Context, actor access.Actor, req ApproveRequest) (*Quotation, error) {
	if err := actor.Require(access.CapApproveQuotes); err != nil {
		return nil, err
	}
	q, err := s.approve(ctx, actor, req)
	if s.recorder != nil {
		s.recorder.ApprovalOutcome(OutcomeOf(err))
	}
	return q, err
}

func (s *Service) approve(ctx context.Context, actor access.Actor, req ApproveRequest) (*Quotation, error) {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, fmt.Sprintf("quotation:%d:approve", req.QuotationID))
		if errors.Is(err, ErrLocked) {
			return nil, fmt.Errorf("%w: approval of %d already in progress", ErrConflict, req.QuotationID)
		}
		if err != nil {
			return nil, fmt.Errorf("lock quotation %d: %w", req.QuotationID, err)
		}
		defer unlock()
	}

	q, err := s.load(ctx, actor, req.QuotationID)
	if err != nil {
		return nil, err
	}
	if err := Transition(q.Status, StatusApproved); err != nil {
		return nil, err
	}

	cmd, err := buildApproval(q, req.ItemIDs, actor.UserID)
	if err != nil {
		return nil, err
	}

	// после проверки предусловий запись не прерывается отменой запроса
	if err := s.store.ApproveQuotationBatch(context.WithoutCancel(ctx), cmd); err != nil {
		return nil, fmt.Errorf("approve quotation %d: %w", q.ID, err)
	}
	s.transitioned(q.Status, StatusApproved)
	s.log.Info("quotation approved", "quotation_id", q.ID, "supplier_id", q.SupplierID, "items", len(cmd.Prices), "user_id", actor.UserID)

	if s.notifier != nil {
		ev := Approval{
			QuotationID:  q.ID,
			SupplierCode: q.SupplierCode,
			SupplierName: q.SupplierName,
			Region:       q.Region,
			Period:       q.Period,
			Items:        len(cmd.Prices),
			ApprovedBy:   actor.UserID,
		}
		if err := s.notifier.QuotationApproved(ctx, ev); err != nil {
			s.log.Warn("approval notification failed", "quotation_id", q.ID, "err", err)
		}
	}
	return s.reload(ctx, q.ID)
}

// buildApproval замораживает действующую цену каждой выбранной позиции.
// Хотя бы одна позиция без цены — ошибка валидации, ничего не пишется.
func buildApproval(q *Quotation, itemIDs []int64, approvedBy int64) (ApprovalCommand, error) {
	selected := q.Items
	ve := &validation.Errors{}
	if len(itemIDs) > 0 {
		selected = make([]Item, 0, len(itemIDs))
		seen := make(map[int64]bool, len(itemIDs))
		for _, id := range itemIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			it, ok := q.Item(id)
			if !ok {
				ve.Add("item_ids", fmt.Sprintf("item %d does not belong to quotation %d", id, q.ID))
				continue
			}
			selected = append(selected, it)
		}
	}
	if len(selected) == 0 && !ve.HasErrors() {
		ve.Add("item_ids", "quotation has no items to approve")
	}

	cmd := ApprovalCommand{
		Guard:      Guard{QuotationID: q.ID, ExpectedStatus: q.Status, ExpectedVersion: q.Version},
		Prices:     make(map[int64]decimal.Decimal, len(selected)),
		ApprovedBy: approvedBy,
	}
	for _, it := range selected {
		price, _, ok := it.Prices().EffectivePrice()
		if !ok {
			ve.Add(fmt.Sprintf("items[%d]", it.ID), "has no price to approve")
			continue
		}
		cmd.Prices[it.ID] = price
		cmd.History = append(cmd.History, history.Entry{
			ProductID:  it.ProductID,
			SupplierID: q.SupplierID,
			Period:     q.Period,
			Price:      price,
			PriceType:  history.PriceTypeApproved,
			Region:     q.Region,
		})
	}
	if err := ve.Err(); err != nil {
		return ApprovalCommand{}, err
	}
	sort.Slice(cmd.History, func(i, j int) bool { return cmd.History[i].ProductID < cmd.History[j].ProductID })
	return cmd, nil
}

type ApproveSuppliersRequest struct {
	Period      string  `json:"period" validate:"required,period"`
	Region      string  `json:"region"`
	SupplierIDs []int64 `json:"supplier_ids" validate:"min=1,dive,gt=0"`
}

type ApprovalResult struct {
	SupplierID  int64   `json:"supplierId"`
	QuotationID int64   `json:"quotationId,omitempty"`
	Outcome     Outcome `json:"outcome"`
	Message     string  `json:"message,omitempty"`
}

// ApproveSuppliers утверждает КП нескольких поставщиков независимо друг от друга:
// сбой одного КП не влияет на остальные.
func (s *Service) ApproveSuppliers(ctx context.Context, actor access.Actor, req ApproveSuppliersRequest) ([]ApprovalResult, error) {
	if err := actor.Require(access.CapApproveQuotes); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	p := period.Token(req.Period)

	region, ok := actor.Scope.Narrow(req.Region)
	ids := dedupe(req.SupplierIDs)
	out := make([]ApprovalResult, 0, len(ids))
	if !ok {
		for _, id := range ids {
			out = append(out, ApprovalResult{SupplierID: id, Outcome: OutcomeForbidden, Message: "region is outside the actor's scope"})
		}
		return out, nil
	}
	if region == "" {
		return nil, validation.Single("region", "is required")
	}

	var known map[int64]suppliers.Supplier
	if s.suppliers != nil {
		var err error
		if known, err = s.suppliers.GetByIDs(ctx, ids); err != nil {
			return nil, fmt.Errorf("load suppliers: %w", err)
		}
	}

	for _, id := range ids {
		res := s.approveSupplier(ctx, actor, id, known, region, p)
		if res.QuotationID == 0 && s.recorder != nil {
			s.recorder.ApprovalOutcome(res.Outcome)
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *Service) approveSupplier(ctx context.Context, actor access.Actor, id int64, known map[int64]suppliers.Supplier, region string, p period.Token) ApprovalResult {
	res := ApprovalResult{SupplierID: id}
	if known != nil {
		sup, ok := known[id]
		if !ok {
			res.Outcome, res.Message = OutcomeNotFound, "supplier not found"
			return res
		}
		if !sup.Active() {
			res.Outcome, res.Message = OutcomeInvalid, "supplier is inactive"
			return res
		}
	}

	qid, found, err := s.store.FindQuotationID(ctx, id, region, p)
	if err != nil {
		s.log.Error("find supplier quotation", "supplier_id", id, "err", err)
		res.Outcome, res.Message = OutcomeFailed, err.Error()
		return res
	}
	if !found {
		res.Outcome, res.Message = OutcomeNotFound, "no quotation for period and region"
		return res
	}

	res.QuotationID = qid
	_, err = s.Approve(ctx, actor, ApproveRequest{QuotationID: qid})
	res.Outcome = OutcomeOf(err)
	if err != nil {
		res.Message = err.Error()
	}
	if res.Outcome == OutcomeFailed {
		s.log.Error("supplier approval failed", "supplier_id", id, "quotation_id", qid, "err", err)
	}
	return res
}

// Cancel — терминальный переход без записи в историю цен.
func (s *Service) Cancel(ctx context.Context, actor access.Actor, quotationID int64) (*Quotation, error) {
	if err := actor.Require(access.CapApproveQuotes); err != nil {
		return nil, err
	}
	q, err := s.load(ctx, actor, quotationID)
	if err != nil {
		return nil, err
	}
	if err := Transition(q.Status, StatusCancelled); err != nil {
		return nil, err
	}
	cmd := CancelCommand{
		Guard:       Guard{QuotationID: q.ID, ExpectedStatus: q.Status, ExpectedVersion: q.Version},
		CancelledBy: actor.UserID,
	}
	if err := s.store.Cancel(ctx, cmd); err != nil {
		return nil, fmt.Errorf("cancel quotation %d: %w", q.ID, err)
	}
	s.transitioned(q.Status, StatusCancelled)
	s.log.Info("quotation cancelled", "quotation_id", q.ID, "user_id", actor.UserID)
	return s.reload(ctx, q.ID)
}

func (s *Service) reload(ctx context.Context, id int64) (*Quotation, error) {
	q, found, err := s.store.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return q, nil
}

func (s *Service) transitioned(from, to Status) {
	if s.recorder != nil && from != to {
		s.recorder.Transition(from, to)
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
