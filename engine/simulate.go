/*
What-if mortgage simulation.

PURPOSE:
  Runs the same month-by-month walk as plan building, layering a scenario
  of hypothetical adjustments on top of the recorded payment history:
  future rate changes, a recurring monthly extra payment, and one-time
  lump-sum payments. Stored payments and terms are never mutated; the
  scenario is purely additive or overriding at read time.

SCENARIO SEMANTICS:
  - Rate overrides are effective-dated like terms snapshots: for month M
    the latest override with From <= M wins, else the resolved terms rate.
  - The recurring extra applies every month from its start period onward.
  - One-time extras apply in exactly their period and stack with the
    recurring extra and with recorded EXTRA payments.
  - Each row lists the adjustments that actually touched it, so a UI can
    annotate the schedule.

SEE ALSO:
  - plan.go: the history-grounded walk this mirrors
*/
package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SCENARIO
// =============================================================================

// Scenario is a bundle of hypothetical adjustments to simulate against.
type Scenario struct {
	RateChanges    []RateChange
	RecurringExtra *RecurringExtra
	OneTimeExtras  []OneTimeExtra
	// PaymentOverride replaces the resolved monthly payment when set.
	PaymentOverride *decimal.Decimal
}

// RateChange switches the interest rate from a month onward.
type RateChange struct {
	From PeriodKey
	Rate decimal.Decimal
}

// RecurringExtra adds the same extra principal every month from From on.
type RecurringExtra struct {
	From   PeriodKey
	Amount decimal.Decimal
}

// OneTimeExtra adds extra principal in a single month.
type OneTimeExtra struct {
	Period PeriodKey
	Amount decimal.Decimal
}

// Validate rejects scenarios with non-positive amounts or negative rates.
func (s Scenario) Validate() error {
	for _, rc := range s.RateChanges {
		if rc.Rate.IsNegative() {
			return engineErr("simulate", "", rc.From, ErrInvalidScenario)
		}
	}
	if s.RecurringExtra != nil && !s.RecurringExtra.Amount.IsPositive() {
		return engineErr("simulate", "", s.RecurringExtra.From, ErrInvalidScenario)
	}
	for _, ot := range s.OneTimeExtras {
		if !ot.Amount.IsPositive() {
			return engineErr("simulate", "", ot.Period, ErrInvalidScenario)
		}
	}
	if s.PaymentOverride != nil && s.PaymentOverride.IsNegative() {
		return engineErr("simulate", "", "", ErrInvalidScenario)
	}
	return nil
}

// =============================================================================
// SIMULATION OUTPUT
// =============================================================================

// Simulation is a hypothetical schedule plus comparison totals.
type Simulation struct {
	ObligationID   ObligationID
	From           PeriodKey
	Rows           []SimulationRow
	TotalInterest  decimal.Decimal
	TotalFees      decimal.Decimal
	TotalPrincipal decimal.Decimal
	TotalPaid      decimal.Decimal
	PayoffPeriod   *PeriodKey
	PayoffDate     *time.Time
	MonthsToPayoff *int
}

// SimulationRow is one simulated period with the adjustments applied to it.
type SimulationRow struct {
	PeriodResult
	Rate        decimal.Decimal
	Adjustments []string
}

// Adjustment labels reported on simulation rows.
const (
	AdjRateChange      = "RATE_CHANGE"
	AdjRecurringExtra  = "RECURRING_EXTRA"
	AdjOneTimeExtra    = "ONE_TIME_EXTRA"
	AdjActualExtra     = "ACTUAL_EXTRA"
	AdjPaymentOverride = "PAYMENT_OVERRIDE"
)

// =============================================================================
// SIMULATION
// =============================================================================

// Simulate walks the scenario over months periods starting at from,
// layered on top of the recorded payment history: recorded main payments
// drive their periods exactly as in BuildPlan, and recorded EXTRA
// payments add to any scenario extras.
func Simulate(o Obligation, history []TermsSnapshot, payments []PaymentRecord, scenario Scenario, from PeriodKey, months int) (*Simulation, error) {
	if !o.IsMortgage() {
		return nil, engineErr("simulate", o.ID, from, ErrNotMortgage)
	}
	if months < MinPlanHorizon || months > MaxPlanHorizon {
		return nil, engineErr("simulate", o.ID, from, ErrInvalidHorizon)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	// Overrides may arrive unordered; the walk picks the latest match per
	// month so a stable copy keeps row annotations deterministic.
	rateChanges := make([]RateChange, len(scenario.RateChanges))
	copy(rateChanges, scenario.RateChanges)
	sort.Slice(rateChanges, func(i, j int) bool {
		return rateChanges[i].From.Before(rateChanges[j].From)
	})

	sim := &Simulation{ObligationID: o.ID, From: from}
	balance := o.SeedBalance()

	for _, period := range PeriodRange(from, months) {
		if !balance.IsPositive() {
			break
		}
		terms := ResolveTerms(o, history, period)
		var adjustments []string

		rate := terms.InterestRate
		for _, rc := range rateChanges {
			if !period.Before(rc.From) {
				rate = rc.Rate
			}
		}
		if !rate.Equal(terms.InterestRate) {
			adjustments = append(adjustments, AdjRateChange)
		}

		payment := terms.Amount
		if main, ok := mainPayment(payments, o.ID, period); ok {
			if main.Status == StatusSkipped {
				payment = decimal.Zero
			} else {
				payment = main.Amount
			}
		}
		if scenario.PaymentOverride != nil {
			payment = *scenario.PaymentOverride
			adjustments = append(adjustments, AdjPaymentOverride)
		}

		extra := extraPrincipal(payments, o.ID, period)
		if extra.IsPositive() {
			adjustments = append(adjustments, AdjActualExtra)
		}
		if re := scenario.RecurringExtra; re != nil && !period.Before(re.From) {
			extra = extra.Add(re.Amount)
			adjustments = append(adjustments, AdjRecurringExtra)
		}
		for _, ot := range scenario.OneTimeExtras {
			if ot.Period == period {
				extra = extra.Add(ot.Amount)
				adjustments = append(adjustments, AdjOneTimeExtra)
			}
		}

		row := AmortizePeriod(period, o.DueDay, balance, rate, payment, terms.Fee(), round2(extra))
		sim.Rows = append(sim.Rows, SimulationRow{
			PeriodResult: row,
			Rate:         rate,
			Adjustments:  adjustments,
		})

		sim.TotalInterest = round2(sim.TotalInterest.Add(row.Interest))
		sim.TotalFees = round2(sim.TotalFees.Add(row.Fee))
		sim.TotalPrincipal = round2(sim.TotalPrincipal.Add(row.Principal))
		sim.TotalPaid = round2(sim.TotalPaid.Add(row.Payment).Add(row.Extra))

		balance = row.BalanceEnd
		if !balance.IsPositive() {
			p := period
			due := p.DueDate(o.DueDay)
			monthsLeft := len(sim.Rows)
			sim.PayoffPeriod = &p
			sim.PayoffDate = &due
			sim.MonthsToPayoff = &monthsLeft
			break
		}
	}
	return sim, nil
}
