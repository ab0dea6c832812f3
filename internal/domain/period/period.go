package period

import (
	"fmt"
	"regexp"

	"github.com/Spok95/kitchen-quotes/internal/validation"
)

// Token — идентификатор ценового цикла вида YYYY-MM-XX (год, месяц, номер цикла).
type Token string

var pattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func init() {
	validation.Register("period", "must match YYYY-MM-XX", Valid)
}

// Valid reports whether s has the exact YYYY-MM-XX shape.
func Valid(s string) bool { return pattern.MatchString(s) }

func Parse(s string) (Token, error) {
	if !Valid(s) {
		return "", validation.Single("period", fmt.Sprintf("%q must match YYYY-MM-XX", s))
	}
	return Token(s), nil
}

func (t Token) String() string { return string(t) }

// Before — лексический порядок совпадает с хронологическим для фиксированной ширины.
func (t Token) Before(other Token) bool { return string(t) < string(other) }
