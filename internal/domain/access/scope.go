package access

import "github.com/Spok95/kitchen-quotes/internal/domain/users"

// Scope — видимость данных актора. Global без фильтра по региону,
// иначе ровно один регион; пустой регион при ограничении означает «ничего».
type Scope struct {
	Global bool   `json:"global"`
	Region string `json:"region,omitempty"`
}

// ScopeFor берёт регион основной (первой) команды. Никакого отката к глобальной видимости.
func ScopeFor(perms PermissionSet, primary *users.Membership) Scope {
	if !perms.TeamRestricted {
		return Scope{Global: true}
	}
	if primary == nil {
		return Scope{}
	}
	return Scope{Region: primary.Region}
}

func (s Scope) DenyAll() bool { return !s.Global && s.Region == "" }

// Narrow сужает запрошенный регион. ok=false — вызывающий возвращает пустой результат.
// Глобальный актор получает запрошенный регион как есть (пустой — все регионы).
func (s Scope) Narrow(requested string) (string, bool) {
	if s.Global {
		return requested, true
	}
	if s.Region == "" {
		return "", false
	}
	if requested != "" && requested != s.Region {
		return "", false
	}
	return s.Region, true
}

// Allows reports whether a record tagged with region is visible.
func (s Scope) Allows(region string) bool {
	if s.Global {
		return true
	}
	return s.Region != "" && s.Region == region
}
