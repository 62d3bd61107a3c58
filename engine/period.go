/*
Month-keyed period arithmetic.

PURPOSE:
  Every timeline in the engine is keyed by calendar month, written as a
  "YYYY-MM" period key. This file implements the key type, its arithmetic,
  and the due-day-anchored billing period that amortization day counts
  are measured over.

KEY CONCEPTS:
  - PeriodKey: "2025-03" style month identifier, lexically ordered
  - Billing period: due date of previous month -> due date of this month
  - Due-day clamping: day 30 in February resolves to the last day

SEE ALSO:
  - amortize.go: consumes the billing-period day count
*/
package engine

import (
	"fmt"
	"regexp"
	"time"
)

// =============================================================================
// PERIOD KEY
// =============================================================================

// PeriodKey identifies a calendar month as "YYYY-MM". The textual form sorts
// lexically in chronological order, so keys double as map keys and sort keys.
type PeriodKey string

var periodKeyRE = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ParsePeriodKey validates and returns a period key from its textual form.
func ParsePeriodKey(s string) (PeriodKey, error) {
	if !periodKeyRE.MatchString(s) {
		return "", fmt.Errorf("%w: %q is not a YYYY-MM period key", ErrInvalidPeriod, s)
	}
	return PeriodKey(s), nil
}

// NewPeriodKey builds a key from a year and month.
func NewPeriodKey(year int, month time.Month) PeriodKey {
	return PeriodKey(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// PeriodOf returns the key of the month containing t.
func PeriodOf(t time.Time) PeriodKey {
	return NewPeriodKey(t.Year(), t.Month())
}

func (p PeriodKey) String() string { return string(p) }

// Year returns the key's year component.
func (p PeriodKey) Year() int {
	var y, m int
	fmt.Sscanf(string(p), "%d-%d", &y, &m)
	return y
}

// Month returns the key's month component.
func (p PeriodKey) Month() time.Month {
	var y, m int
	fmt.Sscanf(string(p), "%d-%d", &y, &m)
	return time.Month(m)
}

// MonthStart is midnight UTC on the first day of the month.
func (p PeriodKey) MonthStart() time.Time {
	return time.Date(p.Year(), p.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Before reports strict chronological order.
func (p PeriodKey) Before(other PeriodKey) bool { return p < other }

// AddMonths returns the key n months after p (n may be negative).
func (p PeriodKey) AddMonths(n int) PeriodKey {
	t := p.MonthStart().AddDate(0, n, 0)
	return PeriodOf(t)
}

// Next is the following month.
func (p PeriodKey) Next() PeriodKey { return p.AddMonths(1) }

// MonthsSince returns the signed whole-month distance from anchor to p.
func (p PeriodKey) MonthsSince(anchor PeriodKey) int {
	return (p.Year()-anchor.Year())*12 + int(p.Month()-anchor.Month())
}

// DueDate is the obligation's due date within this month. Due days are
// constrained to [1, 28] at data entry so no clamping is normally needed,
// but out-of-range values still resolve to the month's last valid day.
func (p PeriodKey) DueDate(dueDay int) time.Time {
	if dueDay < 1 {
		dueDay = 1
	}
	last := daysInMonth(p.Year(), p.Month())
	if dueDay > last {
		dueDay = last
	}
	return time.Date(p.Year(), p.Month(), dueDay, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// =============================================================================
// BILLING PERIOD DAY COUNT
// =============================================================================

// PeriodDays returns the actual calendar day count of the billing period
// ending at month's due date: from the previous month's due date (exclusive)
// to this month's due date (inclusive). February periods are short, 31-day
// neighbors are long; interest accrual follows the real calendar.
func PeriodDays(month PeriodKey, dueDay int) int {
	start := month.AddMonths(-1).DueDate(dueDay)
	end := month.DueDate(dueDay)
	return int(end.Sub(start).Hours() / 24)
}

// PeriodRange enumerates the keys from (inclusive) through months count.
func PeriodRange(from PeriodKey, months int) []PeriodKey {
	keys := make([]PeriodKey, 0, months)
	for i := 0; i < months; i++ {
		keys = append(keys, from.AddMonths(i))
	}
	return keys
}
