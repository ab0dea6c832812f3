package comparison

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/Spok95/kitchen-quotes/internal/domain/catalog"
	"github.com/Spok95/kitchen-quotes/internal/domain/demand"
	"github.com/Spok95/kitchen-quotes/internal/domain/history"
	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/Spok95/kitchen-quotes/internal/domain/pricing"
	"github.com/Spok95/kitchen-quotes/internal/domain/products"
	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/Spok95/kitchen-quotes/internal/validation"
	"github.com/shopspring/decimal"
)

type QuoteSource interface {
	FetchQuoteItems(ctx context.Context, p period.Token, region string, categories []string) ([]quotes.Line, error)
}

type ProductSource interface {
	ListInScope(ctx context.Context, region string, categories []string) ([]products.Product, error)
	BaseQuantities(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error)
}

type DemandSource interface {
	FetchKitchenDemands(ctx context.Context, p period.Token, teamID int64) ([]demand.Demand, error)
}

type HistorySource interface {
	PreviousApproved(ctx context.Context, productID, supplierID int64, before period.Token, region string) (decimal.Decimal, bool, error)
	PreviousApprovedBatch(ctx context.Context, productIDs []int64, before period.Token, region string) (map[history.Key]decimal.Decimal, error)
}

type TeamSource interface {
	GetTeam(ctx context.Context, id int64) (*catalog.Team, bool, error)
}

// Observer получает длительность сборки матрицы.
type Observer interface {
	ObserveMatrixBuild(d time.Duration)
}

type Sources struct {
	Quotes   QuoteSource
	Products ProductSource
	Demands  DemandSource
	History  HistorySource
	Teams    TeamSource
}

type Service struct {
	src      Sources
	observer Observer
	log      *slog.Logger
}

func NewService(src Sources, observer Observer, log *slog.Logger) *Service {
	return &Service{src: src, observer: observer, log: log}
}

// Matrix — только чтение. Регион вне зоны видимости актора даёт пустую матрицу, а не ошибку.
func (s *Service) Matrix(ctx context.Context, actor access.Actor, sel Selection) (*Matrix, error) {
	if err := actor.Require(access.CapViewQuotes); err != nil {
		return nil, err
	}
	if err := validation.Struct(sel); err != nil {
		return nil, err
	}
	p, err := period.Parse(sel.Period)
	if err != nil {
		return nil, err
	}
	var team *catalog.Team
	if sel.TeamID != 0 {
		if team, err = s.kitchen(ctx, sel.TeamID); err != nil {
			return nil, err
		}
	}

	region, ok := actor.Scope.Narrow(sel.Region)
	if !ok {
		s.log.Info("matrix outside actor scope", "user_id", actor.UserID, "region", sel.Region)
		return emptyMatrix(p, sel.Region), nil
	}
	// заявки кухни видны только в её регионе
	if team != nil && (!actor.Scope.Allows(team.Region) || (region != "" && team.Region != region)) {
		s.log.Info("kitchen outside matrix region", "user_id", actor.UserID, "team_id", team.ID, "team_region", team.Region, "region", region)
		return emptyMatrix(p, region), nil
	}

	started := time.Now()
	prods, err := s.src.Products.ListInScope(ctx, region, sel.Categories)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	lines, err := s.src.Quotes.FetchQuoteItems(ctx, p, region, sel.Categories)
	if err != nil {
		return nil, fmt.Errorf("fetch quote items: %w", err)
	}
	qty, err := s.quantities(ctx, prods, p, sel.TeamID)
	if err != nil {
		return nil, err
	}
	prev, err := s.src.History.PreviousApprovedBatch(ctx, productIDs(prods), p, region)
	if err != nil {
		return nil, fmt.Errorf("previous prices: %w", err)
	}

	m, err := Assemble(ctx, Input{
		Period:     p,
		Region:     region,
		TeamID:     sel.TeamID,
		Products:   prods,
		Lines:      lines,
		Quantities: qty,
		Previous:   prev,
	})
	if err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer.ObserveMatrixBuild(time.Since(started))
	}
	s.log.Debug("matrix built", "period", p, "region", region, "products", len(m.Products), "columns", len(m.Suppliers))
	return m, nil
}

// PriceList — утверждённые цены для кухни.
func (s *Service) PriceList(ctx context.Context, actor access.Actor, teamID int64, rawPeriod string) (*PriceList, error) {
	if err := actor.Require(access.CapViewQuotes); err != nil {
		return nil, err
	}
	p, err := period.Parse(rawPeriod)
	if err != nil {
		return nil, err
	}
	team, err := s.kitchen(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if _, ok := actor.Scope.Narrow(team.Region); !ok || team.Region == "" {
		return &PriceList{TeamID: team.ID, TeamName: team.Name, Region: team.Region, Period: p.String(), Items: []PriceListItem{}}, nil
	}

	prods, err := s.src.Products.ListInScope(ctx, team.Region, nil)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	lines, err := s.src.Quotes.FetchQuoteItems(ctx, p, team.Region, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch quote items: %w", err)
	}
	qty, err := s.quantities(ctx, prods, p, team.ID)
	if err != nil {
		return nil, err
	}
	return BuildPriceList(ctx, *team, p, prods, lines, qty)
}

// PreviousPriceQuery — последняя утверждённая цена пары (товар, поставщик) до периода.
type PreviousPriceQuery struct {
	ProductID  int64  `json:"product_id" validate:"gt=0"`
	SupplierID int64  `json:"supplier_id" validate:"gt=0"`
	Period     string `json:"period" validate:"required,period"`
	Region     string `json:"region"`
}

func (s *Service) PreviousPrice(ctx context.Context, actor access.Actor, q PreviousPriceQuery) (PreviousPrice, error) {
	if err := actor.Require(access.CapViewQuotes); err != nil {
		return PreviousPrice{}, err
	}
	if err := validation.Struct(q); err != nil {
		return PreviousPrice{}, err
	}
	region, ok := actor.Scope.Narrow(q.Region)
	if !ok {
		return PreviousPrice{}, nil
	}
	price, found, err := s.src.History.PreviousApproved(ctx, q.ProductID, q.SupplierID, period.Token(q.Period), region)
	if err != nil {
		return PreviousPrice{}, fmt.Errorf("previous price: %w", err)
	}
	if !found {
		return PreviousPrice{}, nil
	}
	return PreviousPrice{HasPreviousData: true, PreviousPrice: &price}, nil
}

func (s *Service) kitchen(ctx context.Context, teamID int64) (*catalog.Team, error) {
	team, ok, err := s.src.Teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	if !ok {
		return nil, validation.Single("team_id", "team not found")
	}
	if !team.IsKitchen() {
		return nil, validation.Single("team_id", "team is not a kitchen")
	}
	return team, nil
}

func (s *Service) quantities(ctx context.Context, prods []products.Product, p period.Token, teamID int64) (*pricing.QuantityResolver, error) {
	base, err := s.src.Products.BaseQuantities(ctx, productIDs(prods))
	if err != nil {
		return nil, fmt.Errorf("base quantities: %w", err)
	}
	var demands []demand.Demand
	if teamID != 0 {
		demands, err = s.src.Demands.FetchKitchenDemands(ctx, p, teamID)
		if err != nil {
			return nil, fmt.Errorf("kitchen demands: %w", err)
		}
	}
	return pricing.NewQuantityResolver(demands, base), nil
}

func productIDs(prods []products.Product) []int64 {
	ids := make([]int64, 0, len(prods))
	for _, p := range prods {
		ids = append(ids, p.ID)
	}
	return ids
}

func emptyMatrix(p period.Token, region string) *Matrix {
	return &Matrix{
		Period:          p.String(),
		Region:          region,
		Products:        []ProductRow{},
		Suppliers:       []SupplierSummary{},
		GroupedOverview: Overview{Regions: []RegionGroup{}},
	}
}
