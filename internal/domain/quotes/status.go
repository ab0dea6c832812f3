package quotes

import "fmt"

type Status string

const (
	StatusPending     Status = "pending"     // создано после импорта Excel
	StatusNegotiation Status = "negotiation" // идёт торг по позициям
	StatusApproved    Status = "approved"    // цены зафиксированы, записаны в историю
	StatusCancelled   Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:     {StatusNegotiation, StatusApproved, StatusCancelled},
	StatusNegotiation: {StatusApproved, StatusCancelled},
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusNegotiation, StatusApproved, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown quotation status %q", s)
}

// Terminal — из approved и cancelled переходов нет.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Transition returns ErrInvalidTransition when from→to is not a legal move.
func Transition(from, to Status) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	return nil
}
