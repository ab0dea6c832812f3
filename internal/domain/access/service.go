package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Spok95/kitchen-quotes/internal/domain/users"
)

// ErrForbidden — у актора нет нужной возможности.
var ErrForbidden = errors.New("forbidden")

// MembershipSource — источник членств пользователя (getUserTeamMemberships).
type MembershipSource interface {
	Memberships(ctx context.Context, userID int64) ([]users.Membership, error)
}

// Actor — пользователь запроса с уже вычисленными правами и областью видимости.
type Actor struct {
	UserID      int64              `json:"userId"`
	Memberships []users.Membership `json:"-"`
	Permissions PermissionSet      `json:"permissions"`
	Scope       Scope              `json:"scope"`
}

// Require returns ErrForbidden when the actor lacks c.
func (a Actor) Require(c Capability) error {
	if !a.Permissions.Has(c) {
		return fmt.Errorf("%w: %s", ErrForbidden, c)
	}
	return nil
}

type Service struct {
	source   MembershipSource
	resolver *Resolver
	table    RoleTable
	log      *slog.Logger
}

func NewService(source MembershipSource, table RoleTable, log *slog.Logger) *Service {
	return &Service{source: source, resolver: NewResolver(table), table: table, log: log}
}

// Actor перечитывает членства на каждый запрос: права не кэшируются между запросами.
func (s *Service) Actor(ctx context.Context, userID int64) (Actor, error) {
	ms, err := s.source.Memberships(ctx, userID)
	if err != nil {
		return Actor{}, fmt.Errorf("load memberships: %w", err)
	}
	for _, m := range ms {
		if !s.table.Known(m.Role) {
			s.log.Warn("unknown role, falling back to the most restrictive one",
				"user_id", userID, "team_id", m.TeamID, "role", m.Role)
		}
	}

	perms := s.resolver.Resolve(ms)
	var primary *users.Membership
	if len(ms) > 0 {
		primary = &ms[0]
	}
	return Actor{
		UserID:      userID,
		Memberships: ms,
		Permissions: perms,
		Scope:       ScopeFor(perms, primary),
	}, nil
}
