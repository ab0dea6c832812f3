package access

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Spok95/kitchen-quotes/internal/domain/users"
	"github.com/Spok95/kitchen-quotes/internal/validation"
)

// Role — составной тег вида DEPARTMENT_LEVEL, например PROCUREMENT_MANAGER.
type Role string

const (
	RoleAdminManager       Role = "ADMIN_MANAGER"
	RoleProcurementManager Role = "PROCUREMENT_MANAGER"
	RoleProcurementStaff   Role = "PROCUREMENT_STAFF"
	RoleKitchenManager     Role = "KITCHEN_MANAGER"
	RoleKitchenStaff       Role = "KITCHEN_STAFF"
	RoleAccountingManager  Role = "ACCOUNTING_MANAGER"
	RoleAccountingStaff    Role = "ACCOUNTING_STAFF"
)

var rolePattern = regexp.MustCompile(`^[A-Z]+_[A-Z]+$`)

func init() {
	validation.Register("role", "must have the DEPARTMENT_LEVEL shape", func(s string) bool {
		return rolePattern.MatchString(s)
	})
}

// ParseRole проверяет форму роли на границе. Резолвер сам никогда не падает.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if !rolePattern.MatchString(s) {
		return "", validation.Single("role", fmt.Sprintf("%q must have the DEPARTMENT_LEVEL shape", s))
	}
	return Role(s), nil
}

// Capability names used in the config roles section.
type Capability string

const (
	CapViewQuotes      Capability = "view_quotes"
	CapCreateQuotes    Capability = "create_quotes"
	CapApproveQuotes   Capability = "approve_quotes"
	CapNegotiateQuotes Capability = "negotiate_quotes"
	CapManageProducts  Capability = "manage_products"
	CapManageSuppliers Capability = "manage_suppliers"
	CapManageKitchens  Capability = "manage_kitchens"
	CapManageStaff     Capability = "manage_staff"
	CapViewAnalytics   Capability = "view_analytics"
	CapExportData      Capability = "export_data"
)

type PermissionSet struct {
	CanViewQuotes      bool `json:"canViewQuotes"`
	CanCreateQuotes    bool `json:"canCreateQuotes"`
	CanApproveQuotes   bool `json:"canApproveQuotes"`
	CanNegotiateQuotes bool `json:"canNegotiateQuotes"`
	CanManageProducts  bool `json:"canManageProducts"`
	CanManageSuppliers bool `json:"canManageSuppliers"`
	CanManageKitchens  bool `json:"canManageKitchens"`
	CanManageStaff     bool `json:"canManageStaff"`
	CanViewAnalytics   bool `json:"canViewAnalytics"`
	CanExportData      bool `json:"canExportData"`
	TeamRestricted     bool `json:"teamRestricted"`
}

// NoPermissions — нейтральный элемент Merge: всё запрещено, доступ ограничен командой.
func NoPermissions() PermissionSet {
	return PermissionSet{TeamRestricted: true}
}

// Merge объединяет два набора: каждая возможность — логическое ИЛИ,
// TeamRestricted — логическое И (любое неограниченное членство снимает ограничение).
// Операция коммутативна и ассоциативна, NoPermissions() — её единица.
func (p PermissionSet) Merge(o PermissionSet) PermissionSet {
	return PermissionSet{
		CanViewQuotes:      p.CanViewQuotes || o.CanViewQuotes,
		CanCreateQuotes:    p.CanCreateQuotes || o.CanCreateQuotes,
		CanApproveQuotes:   p.CanApproveQuotes || o.CanApproveQuotes,
		CanNegotiateQuotes: p.CanNegotiateQuotes || o.CanNegotiateQuotes,
		CanManageProducts:  p.CanManageProducts || o.CanManageProducts,
		CanManageSuppliers: p.CanManageSuppliers || o.CanManageSuppliers,
		CanManageKitchens:  p.CanManageKitchens || o.CanManageKitchens,
		CanManageStaff:     p.CanManageStaff || o.CanManageStaff,
		CanViewAnalytics:   p.CanViewAnalytics || o.CanViewAnalytics,
		CanExportData:      p.CanExportData || o.CanExportData,
		TeamRestricted:     p.TeamRestricted && o.TeamRestricted,
	}
}

// Has reports whether the set grants c.
func (p PermissionSet) Has(c Capability) bool {
	switch c {
	case CapViewQuotes:
		return p.CanViewQuotes
	case CapCreateQuotes:
		return p.CanCreateQuotes
	case CapApproveQuotes:
		return p.CanApproveQuotes
	case CapNegotiateQuotes:
		return p.CanNegotiateQuotes
	case CapManageProducts:
		return p.CanManageProducts
	case CapManageSuppliers:
		return p.CanManageSuppliers
	case CapManageKitchens:
		return p.CanManageKitchens
	case CapManageStaff:
		return p.CanManageStaff
	case CapViewAnalytics:
		return p.CanViewAnalytics
	case CapExportData:
		return p.CanExportData
	}
	return false
}

func grant(restricted bool, caps ...Capability) (PermissionSet, error) {
	p := PermissionSet{TeamRestricted: restricted}
	for _, c := range caps {
		switch c {
		case CapViewQuotes:
			p.CanViewQuotes = true
		case CapCreateQuotes:
			p.CanCreateQuotes = true
		case CapApproveQuotes:
			p.CanApproveQuotes = true
		case CapNegotiateQuotes:
			p.CanNegotiateQuotes = true
		case CapManageProducts:
			p.CanManageProducts = true
		case CapManageSuppliers:
			p.CanManageSuppliers = true
		case CapManageKitchens:
			p.CanManageKitchens = true
		case CapManageStaff:
			p.CanManageStaff = true
		case CapViewAnalytics:
			p.CanViewAnalytics = true
		case CapExportData:
			p.CanExportData = true
		default:
			return p, fmt.Errorf("unknown capability %q", c)
		}
	}
	return p, nil
}

func mustGrant(restricted bool, caps ...Capability) PermissionSet {
	p, err := grant(restricted, caps...)
	if err != nil {
		panic(err)
	}
	return p
}

// RoleTable — неизменяемая таблица роль → набор прав. Строится один раз при старте.
type RoleTable struct {
	roles    map[Role]PermissionSet
	fallback Role
}

// RoleSpec describes one role in the config file.
type RoleSpec struct {
	Capabilities   []string `mapstructure:"capabilities"`
	TeamRestricted bool     `mapstructure:"team_restricted"`
}

func DefaultRoleTable() RoleTable {
	return RoleTable{
		fallback: RoleKitchenStaff,
		roles: map[Role]PermissionSet{
			RoleAdminManager: mustGrant(false,
				CapViewQuotes, CapCreateQuotes, CapApproveQuotes, CapNegotiateQuotes,
				CapManageProducts, CapManageSuppliers, CapManageKitchens, CapManageStaff,
				CapViewAnalytics, CapExportData),
			RoleProcurementManager: mustGrant(false,
				CapViewQuotes, CapCreateQuotes, CapApproveQuotes, CapNegotiateQuotes,
				CapManageProducts, CapManageSuppliers, CapViewAnalytics, CapExportData),
			RoleProcurementStaff: mustGrant(false,
				CapViewQuotes, CapCreateQuotes, CapNegotiateQuotes, CapManageProducts, CapExportData),
			RoleKitchenManager: mustGrant(true,
				CapViewQuotes, CapManageStaff, CapViewAnalytics, CapExportData),
			RoleKitchenStaff: mustGrant(true, CapViewQuotes),
			RoleAccountingManager: mustGrant(false,
				CapViewQuotes, CapViewAnalytics, CapExportData),
			RoleAccountingStaff: mustGrant(false, CapViewQuotes),
		},
	}
}

// NewRoleTable строит таблицу из секции roles конфига. Пустая секция — таблица по умолчанию.
// Резервная роль должна присутствовать в таблице.
func NewRoleTable(specs map[string]RoleSpec, fallback string) (RoleTable, error) {
	if len(specs) == 0 {
		return DefaultRoleTable(), nil
	}
	t := RoleTable{roles: make(map[Role]PermissionSet, len(specs))}
	for name, spec := range specs {
		role, err := ParseRole(strings.ToUpper(name))
		if err != nil {
			return RoleTable{}, fmt.Errorf("roles.%s: %w", name, err)
		}
		caps := make([]Capability, len(spec.Capabilities))
		for i, c := range spec.Capabilities {
			caps[i] = Capability(c)
		}
		p, err := grant(spec.TeamRestricted, caps...)
		if err != nil {
			return RoleTable{}, fmt.Errorf("roles.%s: %w", name, err)
		}
		t.roles[role] = p
	}
	if fallback == "" {
		fallback = string(RoleKitchenStaff)
	}
	if _, ok := t.roles[Role(fallback)]; !ok {
		return RoleTable{}, fmt.Errorf("fallback role %q is not defined", fallback)
	}
	t.fallback = Role(fallback)
	return t, nil
}

// Lookup never fails: unknown or malformed roles get the fallback role's set.
func (t RoleTable) Lookup(role string) PermissionSet {
	if p, ok := t.roles[Role(strings.TrimSpace(role))]; ok {
		return p
	}
	return t.roles[t.fallback]
}

func (t RoleTable) Known(role string) bool {
	_, ok := t.roles[Role(role)]
	return ok
}

// Roles returns the configured role names in sorted order.
func (t RoleTable) Roles() []Role {
	out := make([]Role, 0, len(t.roles))
	for r := range t.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type Resolver struct {
	table RoleTable
}

func NewResolver(table RoleTable) *Resolver { return &Resolver{table: table} }

// Resolve сворачивает права всех членств. Ноль членств — NoPermissions().
func (r *Resolver) Resolve(memberships []users.Membership) PermissionSet {
	out := NoPermissions()
	for _, m := range memberships {
		out = out.Merge(r.table.Lookup(m.Role))
	}
	return out
}
