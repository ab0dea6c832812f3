package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Spok95/kitchen-quotes/internal/config"
	"github.com/Spok95/kitchen-quotes/internal/domain/access"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const base = `
app:
  env: dev
postgres:
  dsn: "postgres://file"
auth:
  jwt_secret: "s3cret"
`

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("APP_POSTGRES_DSN", "postgres://env")

	c, err := config.Load(write(t, base))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Postgres.DSN != "postgres://env" {
		t.Fatalf("env must override file, dsn = %q", c.Postgres.DSN)
	}
	if c.HTTP.Addr != ":8080" || c.HTTP.ShutdownTimeout != 5*time.Second {
		t.Fatalf("http defaults = %+v", c.HTTP)
	}
	if c.RolesFallback != string(access.RoleKitchenStaff) {
		t.Fatalf("fallback = %q", c.RolesFallback)
	}
	table, err := c.RoleTable()
	if err != nil {
		t.Fatalf("role table: %v", err)
	}
	if !table.Lookup("ADMIN_MANAGER").Has(access.CapApproveQuotes) {
		t.Fatal("empty roles section must give the built-in table")
	}
}

func TestLoadRoles(t *testing.T) {
	c, err := config.Load(write(t, base+`
roles:
  PROCUREMENT_MANAGER:
    capabilities: [view_quotes, approve_quotes]
  KITCHEN_STAFF:
    capabilities: [view_quotes]
    team_restricted: true
roles_fallback: KITCHEN_STAFF
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	table, err := c.RoleTable()
	if err != nil {
		t.Fatalf("role table: %v", err)
	}
	pm := table.Lookup("PROCUREMENT_MANAGER")
	if !pm.Has(access.CapApproveQuotes) || pm.Has(access.CapNegotiateQuotes) {
		t.Fatalf("procurement manager = %+v", pm)
	}
	if !table.Lookup("NOBODY").TeamRestricted {
		t.Fatal("unknown role must fall back to the restricted role")
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	if _, err := config.Load(write(t, "postgres:\n  dsn: x\n")); err == nil {
		t.Fatal("missing jwt secret must fail")
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file must fail")
	}
}

func TestPath(t *testing.T) {
	t.Setenv("APP_CONFIG", "/etc/quotes.yaml")
	if got := config.Path(); got != "/etc/quotes.yaml" {
		t.Fatalf("path = %q", got)
	}
}
