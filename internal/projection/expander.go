// Package projection implements the balance forecasting core: expanding
// recurring-transaction templates into occurrence dates, generating loan
// installment schedules, and projecting account balances to a future date.
//
// Everything in this package is pure: no storage access, no mutation of
// inputs, deterministic output for identical inputs.
package projection

import (
	"time"

	"moneta/internal/core"
)

// NextDate advances a date by one frequency step. Monthly uses native
// calendar arithmetic, so a day-of-month that does not exist in the next
// month rolls forward (Jan 31 -> Mar 3 on non-leap years). Callers accept
// this drift; it is not corrected.
func NextDate(d time.Time, freq core.Frequency) time.Time {
	switch freq {
	case core.Daily:
		return d.AddDate(0, 0, 1)
	case core.Weekly:
		return d.AddDate(0, 0, 7)
	case core.Biweekly:
		return d.AddDate(0, 0, 14)
	case core.Monthly:
		return d.AddDate(0, 1, 0)
	default:
		// Unknown frequencies step monthly rather than looping forever.
		return d.AddDate(0, 1, 0)
	}
}

// ExpandOccurrences returns the ordered, ascending occurrence dates of a
// recurring template inside the intersection of [start, end] and
// [today, target]. end may be zero (no end date).
//
// The cursor seeds at max(start, today) and advances one frequency step at
// a time until it exceeds end (when present) or target. If start is after
// target, or today is after target, the result is empty.
func ExpandOccurrences(start, end time.Time, freq core.Frequency, today, target time.Time) []time.Time {
	cursor := start
	if today.After(cursor) {
		cursor = today
	}

	var out []time.Time
	for !cursor.After(target) {
		if !end.IsZero() && cursor.After(end) {
			break
		}
		out = append(out, cursor)
		cursor = NextDate(cursor, freq)
	}
	return out
}
