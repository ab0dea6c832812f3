package demand

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/Spok95/kitchen-quotes/internal/domain/catalog"
	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/Spok95/kitchen-quotes/internal/validation"
)

type Store interface {
	FetchKitchenDemands(ctx context.Context, p period.Token, teamID int64) ([]Demand, error)
	Replace(ctx context.Context, teamID int64, p period.Token, entries []Entry) error
}

type TeamSource interface {
	GetTeam(ctx context.Context, id int64) (*catalog.Team, bool, error)
}

type Service struct {
	store Store
	teams TeamSource
	log   *slog.Logger
}

func NewService(store Store, teams TeamSource, log *slog.Logger) *Service {
	return &Service{store: store, teams: teams, log: log}
}

type SetRequest struct {
	Period  string  `json:"period" validate:"required,period"`
	Entries []Entry `json:"items" validate:"min=1,dive"`
}

// Set меняет заявку кухни. Право есть у manage_kitchens или у manage_staff,
// если актор состоит в этой кухне.
func (s *Service) Set(ctx context.Context, actor access.Actor, teamID int64, req SetRequest) ([]Demand, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	ve := &validation.Errors{}
	seen := make(map[int64]bool, len(req.Entries))
	for i, e := range req.Entries {
		if e.Quantity.IsNegative() {
			ve.Add(fmt.Sprintf("items[%d].quantity", i), "must not be negative")
		}
		if seen[e.ProductID] {
			ve.Add(fmt.Sprintf("items[%d].product_id", i), "is duplicated")
		}
		seen[e.ProductID] = true
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	team, err := s.team(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}
	p := period.Token(req.Period)
	if err := s.store.Replace(ctx, team.ID, p, req.Entries); err != nil {
		return nil, fmt.Errorf("replace demands: %w", err)
	}
	s.log.Info("kitchen demand updated", "team_id", team.ID, "period", p, "items", len(req.Entries), "user_id", actor.UserID)
	return s.store.FetchKitchenDemands(ctx, p, team.ID)
}

func (s *Service) team(ctx context.Context, actor access.Actor, teamID int64) (*catalog.Team, error) {
	t, ok, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	if !ok || !t.IsKitchen() {
		return nil, validation.Single("team_id", "kitchen not found")
	}
	if actor.Permissions.Has(access.CapManageKitchens) && actor.Scope.Allows(t.Region) {
		return t, nil
	}
	if actor.Permissions.Has(access.CapManageStaff) {
		for _, m := range actor.Memberships {
			if m.TeamID == t.ID {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: demand of team %d", access.ErrForbidden, t.ID)
}
