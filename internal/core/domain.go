package core

import (
	"errors"
	"strings"
	"time"
)

// Defaults applied when a user row is missing or incomplete.
const (
	DefaultTimezone = "America/New_York"
	DefaultCurrency = "USD"
	DefaultPlan     = "free"

	SourceManual = "manual"
)

var (
	ErrInvalidRange     = errors.New("invalid day range: first day is after last day")
	ErrInvalidAllowance = errors.New("invalid daily allowance: must not be negative")
	ErrInvalidStartDate = errors.New("invalid budget start date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidTimezone  = errors.New("invalid timezone")
	ErrMissingUser      = errors.New("missing user id")
)

type (
	// BudgetConfig is a user's active recurring daily allowance. Immutable
	// once loaded for a computation; a nil *BudgetConfig means no budget is
	// active and every day is treated as pre-budget.
	BudgetConfig struct {
		DailyAllowanceCents int64
		StartDate           LocalDay
		CurrencyCode        string
	}

	// Transaction is an immutable posted spending record. Negative amount
	// means spend; the ledger only ever reads the magnitude.
	Transaction struct {
		ID           int64
		UserID       string
		AmountCents  int64
		CurrencyCode string
		Name         string
		Source       string
		PostedAt     time.Time
	}

	// User is the profile resolved from the user directory.
	User struct {
		ID           string
		Email        string
		Plan         string
		CurrencyCode string
		Timezone     string
	}

	// LedgerRow is one day's computed allowance, spend, and rollover.
	LedgerRow struct {
		Date                   LocalDay
		StartingAllowanceCents int64
		SpentCents             int64
		EndingRolloverCents    int64
	}
)

func (c *BudgetConfig) Validate() error {
	if c.DailyAllowanceCents < 0 {
		return ErrInvalidAllowance
	}
	if c.StartDate.IsZero() {
		return ErrInvalidStartDate
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingUser
	}
	if t.PostedAt.IsZero() {
		return errors.New("transaction posted_at cannot be zero")
	}
	return nil
}

// Location resolves the user's timezone, falling back to the default when
// the field is empty. An unresolvable zone is an input error.
func (u User) Location() (*time.Location, error) {
	tz := u.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}
