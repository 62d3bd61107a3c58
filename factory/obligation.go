/*
Package factory provides JSON to Go obligation conversion.

PURPOSE:
  Converts JSON obligation definitions into engine.Obligation, TermsSnapshot
  and Scenario values. This is the admitting gate of the system: everything
  the API accepts flows through here, gets validated, defaulted and
  normalized before the engine ever sees it.

JSON SCHEMA:
  {
    "id": "mortgage-main",
    "name": "Home Loan",
    "kind": "MORTGAGE",
    "due_day": 15,
    "interval_months": 1,
    "start_month": 1,
    "start_date": "2020-06-01",
    "active": true,
    "amount": 1450.00,
    "interest_rate": 4.1,
    "has_monthly_fee": true,
    "monthly_fee": 45,
    "remaining_balance": 255000,
    "initial_balance": 300000,
    "pauses": [{"from": "2025-03", "to": "2025-04", "note": "deferral"}]
  }

KEY FEATURES:
  - Validates due day (1-28), interval (1/3/6/12) and estimate ordering
  - Normalizes the legacy HOUSING kind to MORTGAGE
  - Forces mortgages onto a monthly interval
  - Defaults start_month to January and active to true on create

USAGE:
  factory := NewObligationFactory()
  obligation, err := factory.ParseObligation(jsonStr)

  // From a preset (recommended for demo data)
  jsonStr := factory.ThirtyYearMortgageJSON("mortgage-main", "Home Loan", 300000, 4.1, 1450)

SEE ALSO:
  - engine/types.go: target type definitions
  - api/handlers.go: the HTTP layer calling into this package
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fintrack/obligation-engine/engine"
	"github.com/shopspring/decimal"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ObligationJSON is the JSON representation of an obligation.
type ObligationJSON struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Kind           string      `json:"kind"`
	DueDay         int         `json:"due_day"`
	IntervalMonths int         `json:"interval_months,omitempty"`
	StartMonth     int         `json:"start_month,omitempty"`
	StartDate      string      `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate        string      `json:"end_date,omitempty"`
	Active         *bool       `json:"active,omitempty"` // default true
	Pauses         []PauseJSON `json:"pauses,omitempty"`

	Amount      float64 `json:"amount"`
	EstimateMin float64 `json:"estimate_min,omitempty"`
	EstimateMax float64 `json:"estimate_max,omitempty"`

	InterestRate     float64 `json:"interest_rate,omitempty"`
	HasMonthlyFee    bool    `json:"has_monthly_fee,omitempty"`
	MonthlyFee       float64 `json:"monthly_fee,omitempty"`
	RemainingBalance float64 `json:"remaining_balance,omitempty"`
	InitialBalance   float64 `json:"initial_balance,omitempty"`
	MortgageHolder   string  `json:"mortgage_holder,omitempty"`
	MortgageKind     string  `json:"mortgage_kind,omitempty"`
}

// PauseJSON is a closed month range.
type PauseJSON struct {
	From string `json:"from"` // YYYY-MM
	To   string `json:"to"`
	Note string `json:"note,omitempty"`
}

// TermsJSON is the JSON representation of a terms snapshot. Pointer fields
// distinguish "not overridden" from an explicit zero.
type TermsJSON struct {
	From          string   `json:"from"` // YYYY-MM
	Amount        *float64 `json:"amount,omitempty"`
	EstimateMin   *float64 `json:"estimate_min,omitempty"`
	EstimateMax   *float64 `json:"estimate_max,omitempty"`
	InterestRate  *float64 `json:"interest_rate,omitempty"`
	HasMonthlyFee *bool    `json:"has_monthly_fee,omitempty"`
	MonthlyFee    *float64 `json:"monthly_fee,omitempty"`
	Note          string   `json:"note,omitempty"`
}

// PaymentJSON is the JSON representation of a payment record.
type PaymentJSON struct {
	Period string  `json:"period"`         // YYYY-MM
	Kind   string  `json:"kind,omitempty"` // MAIN (default) or EXTRA
	Status string  `json:"status"`
	Amount float64 `json:"amount"`
	PaidAt string  `json:"paid_at,omitempty"` // YYYY-MM-DD, defaults to the period's first day
	Note   string  `json:"note,omitempty"`
}

// ScenarioJSON is the JSON representation of a simulation scenario.
type ScenarioJSON struct {
	RateChanges []struct {
		From string  `json:"from"`
		Rate float64 `json:"rate"`
	} `json:"rate_changes,omitempty"`
	RecurringExtra *struct {
		From   string  `json:"from"`
		Amount float64 `json:"amount"`
	} `json:"recurring_extra,omitempty"`
	OneTimeExtras []struct {
		Period string  `json:"period"`
		Amount float64 `json:"amount"`
	} `json:"one_time_extras,omitempty"`
	PaymentOverride *float64 `json:"payment_override,omitempty"`
}

// =============================================================================
// OBLIGATION FACTORY
// =============================================================================

// ObligationFactory converts JSON obligations to engine structs.
type ObligationFactory struct{}

// NewObligationFactory creates a new obligation factory.
func NewObligationFactory() *ObligationFactory {
	return &ObligationFactory{}
}

// ParseObligation parses a JSON string into an Obligation.
func (f *ObligationFactory) ParseObligation(jsonStr string) (engine.Obligation, error) {
	var oj ObligationJSON
	if err := json.Unmarshal([]byte(jsonStr), &oj); err != nil {
		return engine.Obligation{}, fmt.Errorf("failed to parse obligation JSON: %w", err)
	}
	return f.FromJSON(oj)
}

// FromJSON converts ObligationJSON to engine.Obligation, applying defaults
// and validating field ranges.
func (f *ObligationFactory) FromJSON(oj ObligationJSON) (engine.Obligation, error) {
	var zero engine.Obligation

	if oj.ID == "" {
		return zero, fmt.Errorf("obligation id is required")
	}
	if oj.Name == "" {
		return zero, fmt.Errorf("obligation name is required")
	}
	kind := engine.NormalizeKind(engine.Kind(oj.Kind))
	if !kind.Valid() {
		return zero, fmt.Errorf("unknown obligation kind %q", oj.Kind)
	}
	if oj.DueDay < 1 || oj.DueDay > 28 {
		return zero, fmt.Errorf("due_day must be 1-28, got %d", oj.DueDay)
	}

	interval := oj.IntervalMonths
	if interval == 0 {
		interval = 1
	}
	switch interval {
	case 1, 3, 6, 12:
	default:
		return zero, fmt.Errorf("interval_months must be 1, 3, 6 or 12, got %d", interval)
	}
	if kind == engine.KindMortgage {
		interval = 1
	}

	startMonth := oj.StartMonth
	if startMonth == 0 {
		startMonth = 1
	}
	if startMonth < 1 || startMonth > 12 {
		return zero, fmt.Errorf("start_month must be 1-12, got %d", oj.StartMonth)
	}

	if oj.Amount < 0 || oj.EstimateMin < 0 || oj.EstimateMax < 0 {
		return zero, fmt.Errorf("amounts must not be negative")
	}
	if oj.EstimateMin > oj.EstimateMax {
		return zero, fmt.Errorf("estimate_min %v exceeds estimate_max %v", oj.EstimateMin, oj.EstimateMax)
	}
	if oj.InterestRate < 0 {
		return zero, fmt.Errorf("interest_rate must not be negative")
	}

	o := engine.Obligation{
		ID:               engine.ObligationID(oj.ID),
		Name:             oj.Name,
		Kind:             kind,
		DueDay:           oj.DueDay,
		IntervalMonths:   interval,
		StartMonth:       startMonth,
		Active:           true,
		Amount:           decimal.NewFromFloat(oj.Amount),
		EstimateMin:      decimal.NewFromFloat(oj.EstimateMin),
		EstimateMax:      decimal.NewFromFloat(oj.EstimateMax),
		InterestRate:     decimal.NewFromFloat(oj.InterestRate),
		HasMonthlyFee:    oj.HasMonthlyFee,
		MonthlyFee:       decimal.NewFromFloat(oj.MonthlyFee),
		RemainingBalance: decimal.NewFromFloat(oj.RemainingBalance),
		InitialBalance:   decimal.NewFromFloat(oj.InitialBalance),
		MortgageHolder:   oj.MortgageHolder,
		MortgageKind:     oj.MortgageKind,
	}
	if oj.Active != nil {
		o.Active = *oj.Active
	}

	var err error
	if o.StartDate, err = parseDate(oj.StartDate); err != nil {
		return zero, fmt.Errorf("start_date: %w", err)
	}
	if o.EndDate, err = parseDate(oj.EndDate); err != nil {
		return zero, fmt.Errorf("end_date: %w", err)
	}
	if o.StartDate != nil && o.EndDate != nil && o.EndDate.Before(*o.StartDate) {
		return zero, fmt.Errorf("end_date precedes start_date")
	}

	for _, pj := range oj.Pauses {
		pause, err := parsePause(pj)
		if err != nil {
			return zero, err
		}
		o.Pauses = append(o.Pauses, pause)
	}
	return o, nil
}

// ToJSON converts an Obligation back to its JSON representation.
func (f *ObligationFactory) ToJSON(o engine.Obligation) ObligationJSON {
	active := o.Active
	oj := ObligationJSON{
		ID:               string(o.ID),
		Name:             o.Name,
		Kind:             string(engine.NormalizeKind(o.Kind)),
		DueDay:           o.DueDay,
		IntervalMonths:   o.Interval(),
		StartMonth:       o.StartMonth,
		Active:           &active,
		Amount:           toFloat(o.Amount),
		EstimateMin:      toFloat(o.EstimateMin),
		EstimateMax:      toFloat(o.EstimateMax),
		InterestRate:     toFloat(o.InterestRate),
		HasMonthlyFee:    o.HasMonthlyFee,
		MonthlyFee:       toFloat(o.MonthlyFee),
		RemainingBalance: toFloat(o.RemainingBalance),
		InitialBalance:   toFloat(o.InitialBalance),
		MortgageHolder:   o.MortgageHolder,
		MortgageKind:     o.MortgageKind,
	}
	if o.StartDate != nil {
		oj.StartDate = o.StartDate.Format("2006-01-02")
	}
	if o.EndDate != nil {
		oj.EndDate = o.EndDate.Format("2006-01-02")
	}
	for _, p := range o.Pauses {
		oj.Pauses = append(oj.Pauses, PauseJSON{
			From: p.From.String(),
			To:   p.To.String(),
			Note: p.Note,
		})
	}
	return oj
}

// =============================================================================
// TERMS AND PAYMENT CONVERSION
// =============================================================================

// TermsFromJSON converts TermsJSON to a snapshot for the given obligation.
func (f *ObligationFactory) TermsFromJSON(id engine.ObligationID, tj TermsJSON) (engine.TermsSnapshot, error) {
	var zero engine.TermsSnapshot
	from, err := engine.ParsePeriodKey(tj.From)
	if err != nil {
		return zero, err
	}
	if tj.EstimateMin != nil && tj.EstimateMax != nil && *tj.EstimateMin > *tj.EstimateMax {
		return zero, fmt.Errorf("estimate_min %v exceeds estimate_max %v", *tj.EstimateMin, *tj.EstimateMax)
	}
	s := engine.TermsSnapshot{
		ObligationID:  id,
		From:          from,
		Amount:        toDecimalPtr(tj.Amount),
		EstimateMin:   toDecimalPtr(tj.EstimateMin),
		EstimateMax:   toDecimalPtr(tj.EstimateMax),
		InterestRate:  toDecimalPtr(tj.InterestRate),
		HasMonthlyFee: tj.HasMonthlyFee,
		MonthlyFee:    toDecimalPtr(tj.MonthlyFee),
		Note:          tj.Note,
	}
	if s.InterestRate != nil && s.InterestRate.IsNegative() {
		return zero, fmt.Errorf("interest_rate must not be negative")
	}
	return s, nil
}

// PaymentFromJSON converts PaymentJSON to a record for the given obligation.
func (f *ObligationFactory) PaymentFromJSON(id engine.ObligationID, pj PaymentJSON) (engine.PaymentRecord, error) {
	var zero engine.PaymentRecord
	period, err := engine.ParsePeriodKey(pj.Period)
	if err != nil {
		return zero, err
	}

	kind := engine.PaymentKind(pj.Kind)
	if kind == "" {
		kind = engine.PaymentMain
	}
	if kind != engine.PaymentMain && kind != engine.PaymentExtra {
		return zero, fmt.Errorf("unknown payment kind %q", pj.Kind)
	}

	status := engine.PaymentStatus(pj.Status)
	switch status {
	case engine.StatusPaid, engine.StatusPartial, engine.StatusSkipped, engine.StatusExtra:
	default:
		return zero, fmt.Errorf("unknown payment status %q", pj.Status)
	}
	// Extra records carry exactly the EXTRA status and vice versa.
	if (kind == engine.PaymentExtra) != (status == engine.StatusExtra) {
		return zero, fmt.Errorf("payment kind %s does not match status %s", kind, status)
	}
	if pj.Amount < 0 {
		return zero, fmt.Errorf("amount must not be negative")
	}
	if status != engine.StatusSkipped && pj.Amount == 0 {
		return zero, fmt.Errorf("amount is required for %s payments", status)
	}

	paidAt := period.MonthStart()
	if pj.PaidAt != "" {
		t, err := time.Parse("2006-01-02", pj.PaidAt)
		if err != nil {
			return zero, fmt.Errorf("paid_at: %w", err)
		}
		paidAt = t
	}

	return engine.PaymentRecord{
		ObligationID: id,
		Period:       period,
		Kind:         kind,
		Status:       status,
		Amount:       decimal.NewFromFloat(pj.Amount),
		PaidAt:       paidAt,
		Note:         pj.Note,
	}, nil
}

// ScenarioFromJSON converts ScenarioJSON to an engine.Scenario.
func (f *ObligationFactory) ScenarioFromJSON(sj ScenarioJSON) (engine.Scenario, error) {
	var zero engine.Scenario
	var s engine.Scenario

	for _, rc := range sj.RateChanges {
		from, err := engine.ParsePeriodKey(rc.From)
		if err != nil {
			return zero, err
		}
		s.RateChanges = append(s.RateChanges, engine.RateChange{
			From: from,
			Rate: decimal.NewFromFloat(rc.Rate),
		})
	}
	if sj.RecurringExtra != nil {
		from, err := engine.ParsePeriodKey(sj.RecurringExtra.From)
		if err != nil {
			return zero, err
		}
		s.RecurringExtra = &engine.RecurringExtra{
			From:   from,
			Amount: decimal.NewFromFloat(sj.RecurringExtra.Amount),
		}
	}
	for _, ot := range sj.OneTimeExtras {
		period, err := engine.ParsePeriodKey(ot.Period)
		if err != nil {
			return zero, err
		}
		s.OneTimeExtras = append(s.OneTimeExtras, engine.OneTimeExtra{
			Period: period,
			Amount: decimal.NewFromFloat(ot.Amount),
		})
	}
	if sj.PaymentOverride != nil {
		v := decimal.NewFromFloat(*sj.PaymentOverride)
		s.PaymentOverride = &v
	}
	return s, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parsePause(pj PauseJSON) (engine.PausePeriod, error) {
	var zero engine.PausePeriod
	from, err := engine.ParsePeriodKey(pj.From)
	if err != nil {
		return zero, fmt.Errorf("pause from: %w", err)
	}
	to, err := engine.ParsePeriodKey(pj.To)
	if err != nil {
		return zero, fmt.Errorf("pause to: %w", err)
	}
	if to.Before(from) {
		return zero, fmt.Errorf("pause range %s..%s is inverted", from, to)
	}
	return engine.PausePeriod{From: from, To: to, Note: pj.Note}, nil
}

func toDecimalPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
