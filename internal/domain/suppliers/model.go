package suppliers

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Supplier struct {
	ID        int64
	Code      string
	Name      string
	Contact   string
	Status    Status
	CreatedAt time.Time
}

func (s Supplier) Active() bool { return s.Status == StatusActive }
