package catalog

import "time"

type TeamType string

const (
	TeamKitchen TeamType = "KITCHEN" // кухня: код обязателен и уникален
	TeamOffice  TeamType = "OFFICE"  // офис
)

type Team struct {
	ID        int64
	Code      string
	Name      string
	Type      TeamType
	Region    string
	ManagerID *int64
	Active    bool
	CreatedAt time.Time
}

func (t Team) IsKitchen() bool { return t.Type == TeamKitchen }

type Category struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
}
