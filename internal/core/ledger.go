package core

import "time"

// ComputeLedgerRange walks every local day in [first, last] in ascending
// order and produces one LedgerRow per day, carrying unspent (or overspent)
// balance forward as rollover between consecutive days.
//
// Per-day transition: a day strictly before the budget's start date has a
// base allowance of 0, otherwise the configured daily allowance. The day's
// starting allowance is base plus the incoming rollover, the ending rollover
// is starting minus spent. Rollover never accrues out of a pre-budget day,
// so spending before the start date shows up in SpentCents but cannot leak
// a carry into the budgeted period. Overspend is carried forward as a
// negative rollover, unclamped.
//
// A nil cfg means no active budget: every day is pre-budget, spend still
// shows through, starting and ending stay at 0.
//
// The walk is strictly sequential; row i+1 depends on row i's rollover.
// All arithmetic is on integer minor currency units.
func ComputeLedgerRange(cfg *BudgetConfig, loc *time.Location, first, last LocalDay, txns []Transaction) ([]LedgerRow, error) {
	if first.After(last) {
		return nil, ErrInvalidRange
	}
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	spent := SpentByDay(loc, txns, first, last)
	rows := make([]LedgerRow, 0, DaysBetween(first, last))

	var rollover int64
	for d := first; !d.After(last); d = d.AddDays(1) {
		row := ledgerDay(cfg, d, spent[d], rollover)
		rows = append(rows, row)
		if beforeBudget(cfg, d) {
			rollover = 0
		} else {
			rollover = row.EndingRolloverCents
		}
	}
	return rows, nil
}

// ComputeTodaySnapshot applies the single-day ledger transition using a
// previously computed rollover for the prior day instead of re-walking
// history. It is only as correct as the supplied rollover: a stale or
// missing cached value silently skews the result, so callers that need
// strict correctness should prefer ComputeLedgerRange.
func ComputeTodaySnapshot(cfg *BudgetConfig, loc *time.Location, today LocalDay, txns []Transaction, priorRollover int64) (LedgerRow, error) {
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return LedgerRow{}, err
		}
	}
	spent := SpentByDay(loc, txns, today, today)
	return ledgerDay(cfg, today, spent[today], priorRollover), nil
}

func beforeBudget(cfg *BudgetConfig, d LocalDay) bool {
	return cfg == nil || d.Before(cfg.StartDate)
}

func ledgerDay(cfg *BudgetConfig, d LocalDay, spent, rollover int64) LedgerRow {
	var base int64
	if !beforeBudget(cfg, d) {
		base = cfg.DailyAllowanceCents
	}
	incoming := base + rollover
	return LedgerRow{
		Date:                   d,
		StartingAllowanceCents: incoming,
		SpentCents:             spent,
		EndingRolloverCents:    incoming - spent,
	}
}
