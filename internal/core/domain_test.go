package core

import (
	"errors"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  U@X.Com ":  "u@x.com",
		"u@x.com":     "u@x.com",
		"\tA@B.IT\n":  "a@b.it",
		"":            "",
		"   ":         "",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.ISO() != "2024-01-15" {
		t.Errorf("ISO() = %q, want 2024-01-15", d.ISO())
	}

	for _, bad := range []string{"", "15/01/2024", "2024-13-01", "2024-01-32", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) err = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		User:        "u@x.com",
		Amount:      Money{Cents: 4520},
		Category:    "Food",
		Description: "groceries",
		Date:        NewDate(2024, 1, 15),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(e *Expense)
		want   error
	}{
		{"missing user", func(e *Expense) { e.User = "  " }, ErrEmptyEmail},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"blank category", func(e *Expense) { e.Category = " " }, ErrEmptyCategory},
		{"blank description", func(e *Expense) { e.Description = "" }, ErrEmptyDescription},
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := valid
			c.mutate(&e)
			if err := e.Validate(); !errors.Is(err, c.want) {
				t.Errorf("Validate() = %v, want %v", err, c.want)
			}
		})
	}
}
