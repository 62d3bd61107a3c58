/*
Multi-obligation forecast aggregation.

PURPOSE:
  Builds the month-by-month forecast grid the dashboard renders: one row
  per active obligation, one cell per month bucket, spanning a window of
  past and future months around an explicit "now". Each cell carries a
  settlement status and an expected amount range; mortgage rows addi-
  tionally carry a running balance projection.

GATING, PER CELL:
  1. Lifecycle: months before the start or after the end are out of scope.
  2. Recurrence: a bucket is due when its whole-month distance from the
     recurrence anchor is >= 0 and divisible by the billing interval.
  3. Pause: a paused due month is PAUSED with expected 0; a paused
     mortgage month does not advance the balance.
  4. Terms: the month's effective terms supply the expected range.
  5. Payments: a MAIN record settles the cell (PAID/PARTIAL/SKIPPED);
     an unsettled past-or-current due month is UNPAID.

DERIVED FIGURES:
  - Per-bucket totals: due-item count plus expected/paid sums per column.
  - sum3: expected and paid totals over the first three forward buckets.
  - nextBills: up to 10 unpaid bills due within 45 days of now.
  - Mortgage rows: flat rate/12 interest/principal estimates and a
    months-to-payoff figure. These deliberately ignore day counts, so
    they differ slightly from the schedule in plan.go; the grid favors
    a stable at-a-glance figure.

SEE ALSO:
  - amortize.go: the projection step mortgage cells run through
*/
package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Forecast window bounds, in months.
const (
	MinForecastForward = 3
	MaxForecastForward = 24
	MinForecastBack    = 0
	MaxForecastBack    = 24
)

// nextBillsLookahead bounds the upcoming-bills list.
const (
	nextBillsLookaheadDays = 45
	nextBillsCap           = 10
)

// =============================================================================
// FORECAST OUTPUT
// =============================================================================

// CellStatus is the settlement state of one forecast cell.
type CellStatus string

const (
	CellNotDue  CellStatus = "NOT_DUE"
	CellPaused  CellStatus = "PAUSED"
	CellPaid    CellStatus = "PAID"
	CellPartial CellStatus = "PARTIAL"
	CellSkipped CellStatus = "SKIPPED"
	CellUnpaid  CellStatus = "UNPAID"
)

// Forecast is the full dashboard grid.
type Forecast struct {
	Now     time.Time
	Buckets []PeriodKey
	Rows    []ForecastRow
	// BucketTotals aggregates every row per bucket, index-aligned with
	// Buckets.
	BucketTotals []BucketTotal
	// Sum3Min/Max/Paid total the expected ranges and recorded payments of
	// the first three forward buckets across every row.
	Sum3Min   decimal.Decimal
	Sum3Max   decimal.Decimal
	Sum3Paid  decimal.Decimal
	NextBills []UpcomingBill
}

// BucketTotal is the cross-obligation aggregate for one month bucket.
type BucketTotal struct {
	Period      PeriodKey
	ItemsCount  int // due cells, paused included
	ExpectedMin decimal.Decimal
	ExpectedMax decimal.Decimal
	Paid        decimal.Decimal
}

// ForecastRow is one obligation across every bucket.
type ForecastRow struct {
	ObligationID ObligationID
	Name         string
	Kind         Kind
	DueDay       int
	Cells        []ForecastCell

	// Mortgage-only figures; nil elsewhere.
	Mortgage *MortgageOutlook
}

// ForecastCell is one obligation-month intersection.
type ForecastCell struct {
	Period      PeriodKey
	Status      CellStatus
	ExpectedMin decimal.Decimal
	ExpectedMax decimal.Decimal
	Paid        decimal.Decimal
	Extra       decimal.Decimal
	PauseNote   string
	// BalanceEnd is the projected mortgage balance after this month;
	// nil on non-mortgage rows and on out-of-scope cells.
	BalanceEnd *decimal.Decimal
}

// MortgageOutlook is the at-a-glance mortgage summary on a forecast row.
type MortgageOutlook struct {
	Balance             decimal.Decimal
	EstMonthlyInterest  decimal.Decimal
	EstMonthlyPrincipal decimal.Decimal
	// MonthsLeft is nil when the payment never outruns interest.
	MonthsLeft *int
}

// UpcomingBill is one entry of the next-bills list.
type UpcomingBill struct {
	ObligationID ObligationID
	Name         string
	Kind         Kind
	Period       PeriodKey
	DueDate      time.Time
	AmountMin    decimal.Decimal
	AmountMax    decimal.Decimal
}

// =============================================================================
// BUILDING
// =============================================================================

// ForecastInput bundles the collections and window for one grid build.
type ForecastInput struct {
	Obligations []Obligation
	Terms       []TermsSnapshot
	Payments    []PaymentRecord
	Now         time.Time
	Forward     int
	Back        int
	// KindFilter restricts rows to one kind when non-empty.
	KindFilter Kind
}

// BuildForecast assembles the grid. Inactive obligations are excluded:
// the grid shows current commitments, not archive.
func BuildForecast(in ForecastInput) (*Forecast, error) {
	if in.Forward < MinForecastForward || in.Forward > MaxForecastForward {
		return nil, engineErr("forecast", "", "", ErrInvalidHorizon)
	}
	if in.Back < MinForecastBack || in.Back > MaxForecastBack {
		return nil, engineErr("forecast", "", "", ErrInvalidHorizon)
	}
	if in.KindFilter != "" && !in.KindFilter.Valid() {
		return nil, engineErr("forecast", "", "", ErrInvalidPeriod)
	}

	current := PeriodOf(in.Now)
	start := current.AddMonths(-in.Back)
	buckets := PeriodRange(start, in.Back+in.Forward)

	f := &Forecast{Now: in.Now, Buckets: buckets}

	for _, o := range in.Obligations {
		if !o.Active {
			continue
		}
		kind := NormalizeKind(o.Kind)
		if in.KindFilter != "" && kind != NormalizeKind(in.KindFilter) {
			continue
		}
		row := buildRow(o, in.Terms, in.Payments, buckets, current, start)
		f.Rows = append(f.Rows, row)
	}

	sort.Slice(f.Rows, func(i, j int) bool {
		a, b := f.Rows[i], f.Rows[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Name < b.Name
	})

	f.BucketTotals = bucketTotals(f.Rows, buckets)
	f.Sum3Min, f.Sum3Max, f.Sum3Paid = sumThree(f.Rows, current)
	f.NextBills = collectNextBills(f.Rows, in.Now)
	return f, nil
}

// buildRow evaluates one obligation across every bucket.
func buildRow(o Obligation, terms []TermsSnapshot, payments []PaymentRecord, buckets []PeriodKey, current, timelineStart PeriodKey) ForecastRow {
	row := ForecastRow{
		ObligationID: o.ID,
		Name:         o.Name,
		Kind:         NormalizeKind(o.Kind),
		DueDay:       o.DueDay,
		Cells:        make([]ForecastCell, 0, len(buckets)),
	}

	anchor := o.AnchorPeriod(timelineStart)
	interval := o.Interval()
	isMortgage := o.IsMortgage()
	balance := o.SeedBalance()

	for _, bucket := range buckets {
		cell := ForecastCell{Period: bucket, Status: CellNotDue}

		if !o.InForce(bucket) {
			row.Cells = append(row.Cells, cell)
			continue
		}

		due := isDue(bucket, anchor, interval)
		paused, note := o.PausedAt(bucket)
		eff := ResolveTerms(o, terms, bucket)

		if due {
			switch {
			case paused:
				cell.Status = CellPaused
				cell.PauseNote = note
			default:
				cell.ExpectedMin, cell.ExpectedMax = eff.EstimateRange()
				main, hasMain := mainPayment(payments, o.ID, bucket)
				switch {
				case hasMain && main.Status == StatusSkipped:
					cell.Status = CellSkipped
				case hasMain && main.Status == StatusPartial:
					cell.Status = CellPartial
					cell.Paid = main.Amount
				case hasMain:
					cell.Status = CellPaid
					cell.Paid = main.Amount
				default:
					cell.Status = CellUnpaid
				}
				cell.Extra = extraPrincipal(payments, o.ID, bucket)
			}
		}

		// Mortgage balance projection: every in-force month steps the
		// balance unless paused, which freezes it.
		if isMortgage && !paused && balance.IsPositive() {
			payment := eff.Amount
			if main, ok := mainPayment(payments, o.ID, bucket); ok {
				if main.Status == StatusSkipped {
					payment = decimal.Zero
				} else {
					payment = main.Amount
				}
			}
			extra := extraPrincipal(payments, o.ID, bucket)
			step := AmortizePeriod(bucket, o.DueDay, balance, eff.InterestRate, payment, eff.Fee(), extra)
			balance = step.BalanceEnd
		}
		if isMortgage && o.InForce(bucket) {
			b := balance
			cell.BalanceEnd = &b
		}

		row.Cells = append(row.Cells, cell)
	}

	if isMortgage {
		eff := ResolveTerms(o, terms, current)
		seed := o.SeedBalance()
		outlook := &MortgageOutlook{
			Balance:             seed,
			EstMonthlyInterest:  FlatMonthlyInterest(seed, eff.InterestRate),
			EstMonthlyPrincipal: FlatMonthlyPrincipal(seed, eff.InterestRate, eff.Amount, eff.Fee()),
		}
		if months, ok := MonthsToPayoff(seed, eff.InterestRate, eff.Amount, eff.Fee()); ok {
			outlook.MonthsLeft = &months
		}
		row.Mortgage = outlook
	}
	return row
}

// isDue applies the recurrence gate. Monthly obligations are due in every
// in-force bucket; the anchor only spaces out longer intervals, so a
// StartMonth anchor never blanks the months before it.
func isDue(bucket, anchor PeriodKey, interval int) bool {
	if interval == 1 {
		return true
	}
	diff := bucket.MonthsSince(anchor)
	if diff < 0 {
		return false
	}
	return diff%interval == 0
}

// =============================================================================
// AGGREGATES
// =============================================================================

// bucketTotals aggregates the grid column-wise: per bucket, how many rows
// are due there and what they expect and have paid.
func bucketTotals(rows []ForecastRow, buckets []PeriodKey) []BucketTotal {
	totals := make([]BucketTotal, len(buckets))
	for i, bucket := range buckets {
		totals[i].Period = bucket
	}
	for _, row := range rows {
		for i, cell := range row.Cells {
			if cell.Status == CellNotDue {
				continue
			}
			totals[i].ItemsCount++
			totals[i].ExpectedMin = totals[i].ExpectedMin.Add(cell.ExpectedMin)
			totals[i].ExpectedMax = totals[i].ExpectedMax.Add(cell.ExpectedMax)
			totals[i].Paid = totals[i].Paid.Add(cell.Paid)
		}
	}
	for i := range totals {
		totals[i].ExpectedMin = round2(totals[i].ExpectedMin)
		totals[i].ExpectedMax = round2(totals[i].ExpectedMax)
		totals[i].Paid = round2(totals[i].Paid)
	}
	return totals
}

// sumThree totals the expected ranges and recorded payments over the first
// three forward buckets, current month included. Paused and out-of-scope
// cells contribute nothing.
func sumThree(rows []ForecastRow, current PeriodKey) (min, max, paid decimal.Decimal) {
	end := current.AddMonths(3)
	for _, row := range rows {
		for _, cell := range row.Cells {
			if cell.Period.Before(current) || !cell.Period.Before(end) {
				continue
			}
			min = min.Add(cell.ExpectedMin)
			max = max.Add(cell.ExpectedMax)
			paid = paid.Add(cell.Paid)
		}
	}
	return round2(min), round2(max), round2(paid)
}

// collectNextBills lists unpaid due cells within the look-ahead window,
// soonest first, capped at nextBillsCap.
func collectNextBills(rows []ForecastRow, now time.Time) []UpcomingBill {
	horizon := now.AddDate(0, 0, nextBillsLookaheadDays)
	var bills []UpcomingBill
	for _, row := range rows {
		for _, cell := range row.Cells {
			if cell.Status != CellUnpaid {
				continue
			}
			due := cell.Period.DueDate(row.DueDay)
			if due.Before(now) || !due.Before(horizon) {
				continue
			}
			bills = append(bills, UpcomingBill{
				ObligationID: row.ObligationID,
				Name:         row.Name,
				Kind:         row.Kind,
				Period:       cell.Period,
				DueDate:      due,
				AmountMin:    cell.ExpectedMin,
				AmountMax:    cell.ExpectedMax,
			})
		}
	}
	sort.Slice(bills, func(i, j int) bool {
		if !bills[i].DueDate.Equal(bills[j].DueDate) {
			return bills[i].DueDate.Before(bills[j].DueDate)
		}
		return bills[i].Name < bills[j].Name
	})
	if len(bills) > nextBillsCap {
		bills = bills[:nextBillsCap]
	}
	return bills
}
