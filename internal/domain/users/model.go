package users

// Membership — пара (команда, роль). Первая в списке считается основной командой.
type Membership struct {
	TeamID   int64
	TeamName string
	TeamType string
	Region   string
	Role     string
	Primary  bool
}
