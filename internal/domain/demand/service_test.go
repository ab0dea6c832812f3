package demand_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/Spok95/kitchen-quotes/internal/domain/catalog"
	"github.com/Spok95/kitchen-quotes/internal/domain/demand"
	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/Spok95/kitchen-quotes/internal/domain/users"
	"github.com/Spok95/kitchen-quotes/internal/validation"
	"github.com/shopspring/decimal"
)

type memStore struct {
	rows map[[2]int64]decimal.Decimal // (team, product) → qty
}

func (m *memStore) FetchKitchenDemands(_ context.Context, p period.Token, teamID int64) ([]demand.Demand, error) {
	var out []demand.Demand
	for k, q := range m.rows {
		if k[0] == teamID {
			out = append(out, demand.Demand{TeamID: k[0], ProductID: k[1], Period: p, Quantity: q})
		}
	}
	return out, nil
}

func (m *memStore) Replace(_ context.Context, teamID int64, _ period.Token, entries []demand.Entry) error {
	for _, e := range entries {
		if e.Quantity.IsZero() {
			delete(m.rows, [2]int64{teamID, e.ProductID})
			continue
		}
		m.rows[[2]int64{teamID, e.ProductID}] = e.Quantity
	}
	return nil
}

type teams map[int64]catalog.Team

func (t teams) GetTeam(_ context.Context, id int64) (*catalog.Team, bool, error) {
	team, ok := t[id]
	return &team, ok, nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func setup() (*demand.Service, *memStore) {
	store := &memStore{rows: map[[2]int64]decimal.Decimal{{10, 1}: decimal.NewFromInt(5)}}
	return demand.NewService(store, teams{
		10: {ID: 10, Type: catalog.TeamKitchen, Region: "Hà Nội"},
		11: {ID: 11, Type: catalog.TeamOffice, Region: "Hà Nội"},
	}, discard), store
}

func kitchenManager(teamID int64) access.Actor {
	return access.Actor{
		UserID:      3,
		Memberships: []users.Membership{{TeamID: teamID, Role: string(access.RoleKitchenManager), Region: "Hà Nội"}},
		Permissions: access.DefaultRoleTable().Lookup(string(access.RoleKitchenManager)),
		Scope:       access.Scope{Region: "Hà Nội"},
	}
}

func TestSetByKitchenManager(t *testing.T) {
	svc, store := setup()
	got, err := svc.Set(context.Background(), kitchenManager(10), 10, demand.SetRequest{
		Period: "2024-05-01",
		Entries: []demand.Entry{
			{ProductID: 1, Quantity: decimal.Zero},
			{ProductID: 2, Quantity: decimal.NewFromInt(12)},
		},
	})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(got) != 1 || got[0].ProductID != 2 {
		t.Fatalf("demands = %+v", got)
	}
	if _, ok := store.rows[[2]int64{10, 1}]; ok {
		t.Fatal("zero quantity must clear the override")
	}
}

func TestSetRejects(t *testing.T) {
	svc, _ := setup()
	req := demand.SetRequest{Period: "2024-05-01", Entries: []demand.Entry{{ProductID: 1, Quantity: decimal.NewFromInt(1)}}}

	if _, err := svc.Set(context.Background(), kitchenManager(99), 10, req); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("other kitchen's manager: %v", err)
	}
	if _, err := svc.Set(context.Background(), kitchenManager(11), 11, req); err == nil {
		t.Fatal("office team has no demand")
	}

	bad := demand.SetRequest{Period: "2024-05-01", Entries: []demand.Entry{
		{ProductID: 1, Quantity: decimal.NewFromInt(-1)},
		{ProductID: 1, Quantity: decimal.NewFromInt(2)},
	}}
	_, err := svc.Set(context.Background(), kitchenManager(10), 10, bad)
	ve, ok := validation.As(err)
	if !ok || len(ve.Errors) != 2 {
		t.Fatalf("want 2 field errors, got %v", err)
	}
}
