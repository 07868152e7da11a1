package core

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type (
	// Date is a calendar date with no time component.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          int64
		User        string
		Amount      Money
		Category    string
		Description string
		Date        Date
	}

	// Budget is the per-(user, category) aggregate. Spent is maintained
	// incrementally by the expense recorder and is never recomputed from
	// the ledger.
	Budget struct {
		User     string
		Category string
		Limit    Money
		Spent    Money
	}

	Wallet struct {
		User       string
		TotalFunds Money
	}

	Profile struct {
		Email     string
		Name      string
		AvatarURL string
	}
)

type AlertKind string

const (
	AlertBudgetExceeded AlertKind = "budget_exceeded"
	AlertFundsExceeded  AlertKind = "funds_exceeded"
)

// Alert is an advisory notification evaluated after a successful expense
// write. It is returned to the caller and optionally published, never stored.
type Alert struct {
	Kind     AlertKind
	Category string // empty for funds alerts
	Spent    Money
	Limit    Money
}

var (
	ErrEmptyEmail       = errors.New("email is required")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidLimit     = errors.New("invalid limit")
)

// NormalizeEmail canonicalizes a user key: trimmed and lowercased.
// All data is scoped by this value.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ISO renders the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format(DateLayout)
}

// IsEmpty reports whether the date is unset (used for optional range bounds).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if NormalizeEmail(e.User) == "" {
		return ErrEmptyEmail
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > 1024 {
		return errors.New("description too long (max 1024 characters)")
	}
	return e.Date.Validate()
}
