/*
Package engine provides the recurring-obligation amortization and forecast core.

PURPOSE:
  This package contains the pure computation engine of the finance tracker:
  resolving which financial terms apply to an obligation in a given month,
  computing day-count-accurate mortgage amortization, projecting schedules
  under hypothetical scenarios, and aggregating many obligations into a
  month-by-month forecast grid.

KEY CONCEPTS IN THIS FILE (types.go):
  - Obligation: A recurring financial commitment (mortgage, utility, ...)
  - TermsSnapshot: An effective-dated override of an obligation's terms
  - PaymentRecord: One recorded payment for one billing period
  - PausePeriod: A closed month range during which an obligation is dormant

DESIGN PRINCIPLES:
  1. Purity: Every component is a computation over already-fetched
     in-memory collections. The engine performs no I/O.
  2. Precision: Uses decimal.Decimal for all monetary math; every value
     that is displayed or fed into the next period is rounded to 2 decimals.
  3. Determinism: "now" is always an explicit input, never a clock read.
  4. Totality: Absent history, payments, or pauses are defaults, not errors.

SEE ALSO:
  - terms.go: Effective-terms resolution from override history
  - amortize.go: Single-period interest/principal split
  - plan.go: Month-by-month schedule from actual payments
  - simulate.go: Schedule under hypothetical scenario overlays
  - forecast.go: Multi-obligation forecast grid
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS AND ENUMS
// =============================================================================

type ObligationID string

// Kind classifies an obligation. A legacy HOUSING kind still exists in old
// rows and is normalized to MORTGAGE on read.
type Kind string

const (
	KindMortgage     Kind = "MORTGAGE"
	KindUtility      Kind = "UTILITY"
	KindInsurance    Kind = "INSURANCE"
	KindSubscription Kind = "SUBSCRIPTION"

	kindHousingLegacy Kind = "HOUSING"
)

// NormalizeKind maps legacy kinds onto their current equivalent.
func NormalizeKind(k Kind) Kind {
	if k == kindHousingLegacy {
		return KindMortgage
	}
	return k
}

// Valid reports whether k is a known kind (after normalization).
func (k Kind) Valid() bool {
	switch NormalizeKind(k) {
	case KindMortgage, KindUtility, KindInsurance, KindSubscription:
		return true
	}
	return false
}

// PaymentKind distinguishes the single MAIN payment of a period from
// additional EXTRA principal payments.
type PaymentKind string

const (
	PaymentMain  PaymentKind = "MAIN"
	PaymentExtra PaymentKind = "EXTRA"
)

// PaymentStatus records how a period was settled.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "PAID"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusSkipped PaymentStatus = "SKIPPED"
	StatusExtra   PaymentStatus = "EXTRA"
)

// =============================================================================
// MONEY HELPERS
// =============================================================================

// round2 is THE rounding rule of this subsystem: half-up to 2 decimal places,
// applied after every arithmetic combination that is displayed or fed into
// the next period. Intermediate compounding therefore uses already-rounded
// values. All engine money is non-negative, so decimal's half-away-from-zero
// rounding is exactly half-up here.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// maxZero clamps a decimal at zero.
func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

var (
	dec100  = decimal.NewFromInt(100)
	dec365  = decimal.NewFromInt(365)
	dec1200 = decimal.NewFromInt(1200)
)

// =============================================================================
// OBLIGATION - A recurring financial commitment
// =============================================================================

// Obligation is a recurring financial commitment. Non-mortgage kinds carry
// zeroed mortgage fields and vice versa; that invariant is owned by the
// CRUD layer, the engine only reads.
type Obligation struct {
	ID   ObligationID
	Name string
	Kind Kind

	// DueDay is the day of month a payment is due, constrained to [1, 28]
	// at the data-entry boundary.
	DueDay int

	// IntervalMonths is the billing recurrence: 1, 3, 6 or 12.
	// Mortgages are always forced to 1.
	IntervalMonths int

	// StartMonth (1-12) is the recurrence anchor used when no explicit
	// StartDate exists; it is taken in the timeline's start year.
	StartMonth int

	// Lifecycle bounds. nil means unbounded on that side.
	StartDate *time.Time
	EndDate   *time.Time

	Active bool

	// Pauses are closed month ranges during which the obligation accrues
	// no expected amount and a mortgage balance does not advance.
	Pauses []PausePeriod

	// Base financial fields (non-mortgage).
	Amount      decimal.Decimal
	EstimateMin decimal.Decimal
	EstimateMax decimal.Decimal

	// Mortgage fields.
	InterestRate     decimal.Decimal // nominal annual rate, percent
	HasMonthlyFee    bool
	MonthlyFee       decimal.Decimal
	RemainingBalance decimal.Decimal
	InitialBalance   decimal.Decimal
	MortgageHolder   string
	MortgageKind     string
}

// IsMortgage reports whether the (normalized) kind is MORTGAGE.
func (o Obligation) IsMortgage() bool {
	return NormalizeKind(o.Kind) == KindMortgage
}

// SeedBalance is the balance a schedule walk starts from:
// the tracked remaining balance, falling back to the initial balance.
func (o Obligation) SeedBalance() decimal.Decimal {
	if o.RemainingBalance.IsPositive() {
		return o.RemainingBalance
	}
	return o.InitialBalance
}

// Interval returns the effective billing interval. Mortgages bill monthly
// regardless of what the stored row says.
func (o Obligation) Interval() int {
	if o.IsMortgage() {
		return 1
	}
	if o.IntervalMonths <= 1 {
		return 1
	}
	return o.IntervalMonths
}

// AnchorPeriod is the recurrence anchor for the recurrence gate: the month
// of the explicit start date if set, else StartMonth taken in the timeline's
// start year.
func (o Obligation) AnchorPeriod(timelineStart PeriodKey) PeriodKey {
	if o.StartDate != nil {
		return PeriodOf(*o.StartDate)
	}
	m := o.StartMonth
	if m < 1 || m > 12 {
		m = 1
	}
	return NewPeriodKey(timelineStart.Year(), time.Month(m))
}

// InForce applies the lifecycle gate: false if the month precedes the
// obligation's start month or follows its end month.
func (o Obligation) InForce(month PeriodKey) bool {
	if o.StartDate != nil && month.Before(PeriodOf(*o.StartDate)) {
		return false
	}
	if o.EndDate != nil && PeriodOf(*o.EndDate).Before(month) {
		return false
	}
	return true
}

// PausedAt reports whether any pause period covers the month, along with
// the pause note for display.
func (o Obligation) PausedAt(month PeriodKey) (bool, string) {
	for _, p := range o.Pauses {
		if p.Contains(month) {
			return true, p.Note
		}
	}
	return false, ""
}

// PausePeriod is a closed month range [From, To] plus a note.
type PausePeriod struct {
	From PeriodKey
	To   PeriodKey
	Note string
}

// Contains reports whether the month falls inside [From, To].
func (p PausePeriod) Contains(month PeriodKey) bool {
	return !month.Before(p.From) && !p.To.Before(month)
}

// =============================================================================
// TERMS SNAPSHOT - Effective-dated override of financial terms
// =============================================================================

// TermsSnapshot overrides a subset of an obligation's financial terms from
// a given month onward. Within one obligation, snapshots are totally ordered
// by From; resolution for month M picks the latest snapshot with From <= M.
// A nil field means "not overridden, fall back to the base value".
type TermsSnapshot struct {
	ObligationID ObligationID
	From         PeriodKey // always a month start, unique per obligation

	Amount        *decimal.Decimal
	EstimateMin   *decimal.Decimal
	EstimateMax   *decimal.Decimal
	InterestRate  *decimal.Decimal
	HasMonthlyFee *bool
	MonthlyFee    *decimal.Decimal

	Note string
}

// EffectiveTerms is the merged result of base obligation values and the
// snapshot in effect for a month.
type EffectiveTerms struct {
	Amount        decimal.Decimal
	EstimateMin   decimal.Decimal
	EstimateMax   decimal.Decimal
	InterestRate  decimal.Decimal
	HasMonthlyFee bool
	MonthlyFee    decimal.Decimal
}

// Fee returns the monthly fee, zero when fees are disabled.
func (t EffectiveTerms) Fee() decimal.Decimal {
	if !t.HasMonthlyFee {
		return decimal.Zero
	}
	return t.MonthlyFee
}

// EstimateRange returns the expected min/max amounts. When both estimates
// are zero the obligation is a fixed amount, not a range, and both bounds
// default to Amount.
func (t EffectiveTerms) EstimateRange() (min, max decimal.Decimal) {
	if t.EstimateMin.IsZero() && t.EstimateMax.IsZero() {
		return t.Amount, t.Amount
	}
	return t.EstimateMin, t.EstimateMax
}

// =============================================================================
// PAYMENT RECORD - One recorded payment for one period
// =============================================================================

// PaymentRecord is one recorded payment against an obligation for one
// billing period. At most one MAIN and one EXTRA record exist per
// obligation per period; the store layer owns that uniqueness.
type PaymentRecord struct {
	ObligationID ObligationID
	Period       PeriodKey
	Kind         PaymentKind
	Status       PaymentStatus
	Amount       decimal.Decimal
	PaidAt       time.Time
	Note         string
}

// CountsAsPaid reports whether the record contributes to paid aggregates.
// SKIPPED payments do not, but still occupy the MAIN slot: the period is
// handled, not unpaid.
func (p PaymentRecord) CountsAsPaid() bool {
	return p.Status != StatusSkipped
}
