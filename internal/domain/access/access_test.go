package access_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/Spok95/kitchen-quotes/internal/domain/users"
	"github.com/Spok95/kitchen-quotes/internal/validation"
)

func member(teamID int64, region, role string) users.Membership {
	return users.Membership{TeamID: teamID, Region: region, Role: role}
}

func TestResolveZeroMemberships(t *testing.T) {
	r := access.NewResolver(access.DefaultRoleTable())
	got := r.Resolve(nil)
	if got != access.NoPermissions() {
		t.Fatalf("zero memberships: got %+v", got)
	}
	if !got.TeamRestricted || got.CanViewQuotes {
		t.Fatalf("zero memberships must be all-false and restricted: %+v", got)
	}
}

func TestResolveHighestPrivilegeWins(t *testing.T) {
	r := access.NewResolver(access.DefaultRoleTable())
	got := r.Resolve([]users.Membership{
		member(1, "Hà Nội", "KITCHEN_STAFF"),
		member(2, "TP.HCM", "PROCUREMENT_MANAGER"),
	})
	if got.TeamRestricted {
		t.Fatal("any unrestricted membership must lift the restriction")
	}
	if !got.CanApproveQuotes || !got.CanViewQuotes {
		t.Fatalf("capabilities must be OR-merged: %+v", got)
	}

	onlyKitchen := r.Resolve([]users.Membership{
		member(1, "Hà Nội", "KITCHEN_STAFF"),
		member(3, "Hà Nội", "KITCHEN_MANAGER"),
	})
	if !onlyKitchen.TeamRestricted {
		t.Fatal("all memberships restricted: result must stay restricted")
	}
	if !onlyKitchen.CanExportData || onlyKitchen.CanApproveQuotes {
		t.Fatalf("unexpected kitchen merge %+v", onlyKitchen)
	}
}

func TestResolveUnknownRoleFailsClosed(t *testing.T) {
	table := access.DefaultRoleTable()
	r := access.NewResolver(table)
	want := table.Lookup("KITCHEN_STAFF")
	for _, role := range []string{"CEO", "procurement_manager", "", "SUPER_ADMIN_X", "💥"} {
		got := r.Resolve([]users.Membership{member(1, "Hà Nội", role)})
		if got != want {
			t.Errorf("role %q: got %+v, want fallback %+v", role, got, want)
		}
	}
}

func TestMergeLaws(t *testing.T) {
	table := access.DefaultRoleTable()
	roles := table.Roles()
	id := access.NoPermissions()
	for _, a := range roles {
		pa := table.Lookup(string(a))
		if pa.Merge(id) != pa || id.Merge(pa) != pa {
			t.Fatalf("NoPermissions is not an identity for %s", a)
		}
		for _, b := range roles {
			pb := table.Lookup(string(b))
			if pa.Merge(pb) != pb.Merge(pa) {
				t.Fatalf("merge not commutative for %s,%s", a, b)
			}
			for _, c := range roles {
				pc := table.Lookup(string(c))
				if pa.Merge(pb).Merge(pc) != pa.Merge(pb.Merge(pc)) {
					t.Fatalf("merge not associative for %s,%s,%s", a, b, c)
				}
			}
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, err := access.ParseRole(" PROCUREMENT_MANAGER "); err != nil || r != access.RoleProcurementManager {
		t.Fatalf("ParseRole: %v %v", r, err)
	}
	for _, bad := range []string{"", "ADMIN", "procurement_manager", "A_B_C", "KITCHEN-STAFF"} {
		_, err := access.ParseRole(bad)
		if _, ok := validation.As(err); !ok {
			t.Errorf("ParseRole(%q): expected validation error, got %v", bad, err)
		}
	}
}

func TestNewRoleTableFromConfig(t *testing.T) {
	table, err := access.NewRoleTable(map[string]access.RoleSpec{
		"buyer_lead": {Capabilities: []string{"view_quotes", "approve_quotes"}},
		"chef_line":  {Capabilities: []string{"view_quotes"}, TeamRestricted: true},
	}, "CHEF_LINE")
	if err != nil {
		t.Fatalf("NewRoleTable: %v", err)
	}
	if p := table.Lookup("BUYER_LEAD"); !p.CanApproveQuotes || p.TeamRestricted {
		t.Fatalf("BUYER_LEAD: %+v", p)
	}
	if p := table.Lookup("PROCUREMENT_MANAGER"); p.CanApproveQuotes || !p.TeamRestricted {
		t.Fatalf("roles absent from the config must fall back: %+v", p)
	}

	if _, err := access.NewRoleTable(map[string]access.RoleSpec{"X_Y": {Capabilities: []string{"fly"}}}, "X_Y"); err == nil {
		t.Fatal("unknown capability must be rejected")
	}
	if _, err := access.NewRoleTable(map[string]access.RoleSpec{"X_Y": {}}, "KITCHEN_STAFF"); err == nil {
		t.Fatal("missing fallback role must be rejected")
	}
	def, err := access.NewRoleTable(nil, "")
	if err != nil || !def.Known("ADMIN_MANAGER") {
		t.Fatalf("empty config must yield the default table: %v", err)
	}
}

func TestScopeNarrow(t *testing.T) {
	global := access.Scope{Global: true}
	if r, ok := global.Narrow("TP.HCM"); !ok || r != "TP.HCM" {
		t.Fatalf("global narrow: %q %v", r, ok)
	}
	if r, ok := global.Narrow(""); !ok || r != "" {
		t.Fatalf("global narrow all: %q %v", r, ok)
	}

	hanoi := access.Scope{Region: "Hà Nội"}
	if r, ok := hanoi.Narrow(""); !ok || r != "Hà Nội" {
		t.Fatalf("restricted default: %q %v", r, ok)
	}
	if r, ok := hanoi.Narrow("Hà Nội"); !ok || r != "Hà Nội" {
		t.Fatalf("restricted same region: %q %v", r, ok)
	}
	if _, ok := hanoi.Narrow("TP.HCM"); ok {
		t.Fatal("restricted actor must not see another region")
	}

	deny := access.Scope{}
	if !deny.DenyAll() {
		t.Fatal("restricted scope without region must deny all")
	}
	if _, ok := deny.Narrow(""); ok {
		t.Fatal("deny-all must never narrow to global")
	}
	if deny.Allows("") || deny.Allows("Hà Nội") {
		t.Fatal("deny-all allows nothing")
	}
}

type fakeMemberships map[int64][]users.Membership

func (f fakeMemberships) Memberships(_ context.Context, userID int64) ([]users.Membership, error) {
	if userID < 0 {
		return nil, errors.New("db down")
	}
	return f[userID], nil
}

func TestServiceActor(t *testing.T) {
	src := fakeMemberships{
		7: {member(10, "Hà Nội", "KITCHEN_STAFF"), member(11, "TP.HCM", "KITCHEN_STAFF")},
		8: {member(20, "", "KITCHEN_MANAGER")},
		9: {member(30, "Đà Nẵng", "ACCOUNTING_MANAGER")},
	}
	svc := access.NewService(src, access.DefaultRoleTable(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	a, err := svc.Actor(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if a.Scope.Global || a.Scope.Region != "Hà Nội" {
		t.Fatalf("primary team region must win: %+v", a.Scope)
	}
	if err := a.Require(access.CapViewQuotes); err != nil {
		t.Fatalf("kitchen staff can view: %v", err)
	}
	if err := a.Require(access.CapApproveQuotes); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("kitchen staff cannot approve: %v", err)
	}

	b, _ := svc.Actor(ctx, 8)
	if !b.Scope.DenyAll() {
		t.Fatalf("restricted primary team without region must deny all: %+v", b.Scope)
	}

	c, _ := svc.Actor(ctx, 9)
	if !c.Scope.Global {
		t.Fatalf("unrestricted role must be global: %+v", c.Scope)
	}

	nobody, _ := svc.Actor(ctx, 404)
	if nobody.Permissions != access.NoPermissions() || !nobody.Scope.DenyAll() {
		t.Fatalf("unknown user: %+v", nobody)
	}

	if _, err := svc.Actor(ctx, -1); err == nil {
		t.Fatal("storage fault must surface")
	}
}
