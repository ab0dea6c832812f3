package period_test

import (
	"testing"

	"github.com/Spok95/kitchen-quotes/internal/domain/period"
	"github.com/Spok95/kitchen-quotes/internal/validation"
)

func TestParse(t *testing.T) {
	ok := []string{"2024-05-01", "2023-12-02", "0000-00-00"}
	for _, s := range ok {
		tok, err := period.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error %v", s, err)
		}
		if tok.String() != s {
			t.Fatalf("Parse(%q) = %q", s, tok)
		}
	}

	bad := []string{"", "2024-5-01", "2024-05", "2024/05/01", "2024-05-01 ", " 2024-05-01", "24-05-01", "2024-05-0a", "2024-05-011"}
	for _, s := range bad {
		_, err := period.Parse(s)
		if err == nil {
			t.Fatalf("Parse(%q): expected error", s)
		}
		ve, ok := validation.As(err)
		if !ok || ve.Errors[0].Field != "period" {
			t.Fatalf("Parse(%q): expected validation error on period, got %v", s, err)
		}
	}
}

func TestBefore(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"2024-04-02", "2024-05-01", true},
		{"2024-05-01", "2024-05-02", true},
		{"2023-12-03", "2024-01-01", true},
		{"2024-05-01", "2024-05-01", false},
		{"2024-06-01", "2024-05-03", false},
	}
	for _, c := range cases {
		if got := period.Token(c.a).Before(period.Token(c.b)); got != c.want {
			t.Errorf("%s.Before(%s) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestStructTag(t *testing.T) {
	type req struct {
		Period string `json:"period" validate:"required,period"`
	}
	if err := validation.Struct(req{Period: "2024-05-01"}); err != nil {
		t.Fatalf("valid period rejected: %v", err)
	}
	err := validation.Struct(req{Period: "May 2024"})
	ve, ok := validation.As(err)
	if !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if ve.Errors[0].Field != "period" || ve.Errors[0].Message != "must match YYYY-MM-XX" {
		t.Fatalf("unexpected error %+v", ve.Errors[0])
	}
}
