package core

import "time"

// SpentByDay buckets transactions into per-local-day spend totals for the
// inclusive range [first, last]. Each transaction contributes the magnitude
// of its amount to the day its PostedAt instant falls in under loc.
//
// Transactions whose local day lands outside the range are dropped rather
// than rejected: upstream filters select by UTC window and may round a day
// boundary imprecisely. Days with no transactions are absent from the map,
// so callers must treat a missing key as zero.
func SpentByDay(loc *time.Location, txns []Transaction, first, last LocalDay) map[LocalDay]int64 {
	spent := make(map[LocalDay]int64)
	for _, t := range txns {
		d := DayOf(t.PostedAt, loc)
		if d.Before(first) || d.After(last) {
			continue
		}
		amt := t.AmountCents
		if amt < 0 {
			amt = -amt
		}
		spent[d] += amt
	}
	return spent
}
