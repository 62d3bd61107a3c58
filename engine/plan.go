/*
Amortization plan building.

PURPOSE:
  Walks a mortgage month by month from a starting period, producing a full
  repayment schedule. Months with a recorded payment use the actual amount
  paid; future or unrecorded months fall back to the terms in effect, so
  the plan seamlessly blends history with projection.

WALK RULES:
  - Each month's terms (rate, fee, amount) are resolved independently, so
    a mid-plan rate change takes effect exactly at its From month.
  - A SKIPPED main payment means no money moved: payment 0 for that month.
  - EXTRA records add pure principal on top of the main payment.
  - The walk stops early when the balance reaches zero; the payoff period
    is reported on the plan.

SEE ALSO:
  - amortize.go: per-period math
  - simulate.go: the same walk under hypothetical overlays
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Horizon bounds for plan and simulation walks, in months.
const (
	MinPlanHorizon = 1
	MaxPlanHorizon = 600
)

// =============================================================================
// PLAN OUTPUT
// =============================================================================

// Plan is a month-by-month mortgage schedule with running totals.
type Plan struct {
	ObligationID   ObligationID
	From           PeriodKey
	Rows           []PlanRow
	TotalInterest  decimal.Decimal
	TotalFees      decimal.Decimal
	TotalPrincipal decimal.Decimal
	TotalPaid      decimal.Decimal
	TotalExtra     decimal.Decimal
	// Payoff fields are set when the balance reached zero within the
	// horizon: the period, its due date, and its 1-based row index.
	PayoffPeriod   *PeriodKey
	PayoffDate     *time.Time
	MonthsToPayoff *int
}

// PlanRow is one period of the schedule plus its data provenance.
type PlanRow struct {
	PeriodResult
	Rate     decimal.Decimal
	Recorded bool // true when built from an actual payment record
}

// =============================================================================
// BUILDING
// =============================================================================

// BuildPlan produces the repayment schedule for a mortgage over months
// periods starting at from. payments is the obligation's full payment
// history; records outside the walked window are ignored.
func BuildPlan(o Obligation, history []TermsSnapshot, payments []PaymentRecord, from PeriodKey, months int) (*Plan, error) {
	if !o.IsMortgage() {
		return nil, engineErr("plan", o.ID, from, ErrNotMortgage)
	}
	if months < MinPlanHorizon || months > MaxPlanHorizon {
		return nil, engineErr("plan", o.ID, from, ErrInvalidHorizon)
	}

	plan := &Plan{ObligationID: o.ID, From: from}
	balance := o.SeedBalance()

	for _, period := range PeriodRange(from, months) {
		if !balance.IsPositive() {
			break
		}
		terms := ResolveTerms(o, history, period)

		payment := terms.Amount
		recorded := false
		if main, ok := mainPayment(payments, o.ID, period); ok {
			recorded = true
			if main.Status == StatusSkipped {
				payment = decimal.Zero
			} else {
				payment = main.Amount
			}
		}
		extra := extraPrincipal(payments, o.ID, period)

		row := AmortizePeriod(period, o.DueDay, balance, terms.InterestRate, payment, terms.Fee(), extra)
		plan.Rows = append(plan.Rows, PlanRow{
			PeriodResult: row,
			Rate:         terms.InterestRate,
			Recorded:     recorded,
		})

		plan.TotalInterest = round2(plan.TotalInterest.Add(row.Interest))
		plan.TotalFees = round2(plan.TotalFees.Add(row.Fee))
		plan.TotalPrincipal = round2(plan.TotalPrincipal.Add(row.Principal))
		plan.TotalPaid = round2(plan.TotalPaid.Add(row.Payment).Add(row.Extra))
		plan.TotalExtra = round2(plan.TotalExtra.Add(row.Extra))

		balance = row.BalanceEnd
		if !balance.IsPositive() {
			p := period
			due := p.DueDate(o.DueDay)
			months := len(plan.Rows)
			plan.PayoffPeriod = &p
			plan.PayoffDate = &due
			plan.MonthsToPayoff = &months
			break
		}
	}
	return plan, nil
}

// =============================================================================
// PAYMENT LOOKUP
// =============================================================================

// mainPayment finds the MAIN record for a period, if any.
func mainPayment(payments []PaymentRecord, id ObligationID, period PeriodKey) (PaymentRecord, bool) {
	for _, p := range payments {
		if p.ObligationID == id && p.Period == period && p.Kind == PaymentMain {
			return p, true
		}
	}
	return PaymentRecord{}, false
}

// extraPrincipal sums EXTRA records for a period.
func extraPrincipal(payments []PaymentRecord, id ObligationID, period PeriodKey) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.ObligationID == id && p.Period == period && p.Kind == PaymentExtra {
			total = total.Add(p.Amount)
		}
	}
	return round2(total)
}
