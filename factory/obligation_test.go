package factory_test

import (
	"strings"
	"testing"

	"github.com/fintrack/obligation-engine/engine"
	"github.com/fintrack/obligation-engine/factory"
	"github.com/shopspring/decimal"
)

func newFactory() *factory.ObligationFactory {
	return factory.NewObligationFactory()
}

func decimalFrom(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// =============================================================================
// OBLIGATION PARSING TESTS
// =============================================================================

func TestParseObligation_MortgagePreset(t *testing.T) {
	// GIVEN: the thirty-year mortgage preset
	// WHEN: parsing it
	// THEN: a monthly mortgage with the given figures comes out

	jsonStr := factory.ThirtyYearMortgageJSON("m-1", "Home Loan", 300000, 4.1, 1450)
	o, err := newFactory().ParseObligation(jsonStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.Kind != engine.KindMortgage || !o.IsMortgage() {
		t.Errorf("expected MORTGAGE, got %s", o.Kind)
	}
	if o.Interval() != 1 {
		t.Errorf("expected monthly interval, got %d", o.Interval())
	}
	if !o.Active {
		t.Error("expected active by default")
	}
	if !o.RemainingBalance.Equal(o.InitialBalance) {
		t.Errorf("preset should seed both balances equally")
	}
}

func TestParseObligation_LegacyHousingNormalized(t *testing.T) {
	// GIVEN: a row still carrying the retired HOUSING kind
	// WHEN: parsing
	// THEN: it comes out as MORTGAGE

	o, err := newFactory().FromJSON(factory.ObligationJSON{
		ID: "m-2", Name: "Old Loan", Kind: "HOUSING", DueDay: 1, Amount: 900,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Kind != engine.KindMortgage {
		t.Errorf("expected MORTGAGE, got %s", o.Kind)
	}
}

func TestParseObligation_MortgageIntervalForcedMonthly(t *testing.T) {
	// GIVEN: a mortgage declared quarterly
	// WHEN: parsing
	// THEN: the interval is forced back to monthly

	o, err := newFactory().FromJSON(factory.ObligationJSON{
		ID: "m-3", Name: "Loan", Kind: "MORTGAGE", DueDay: 15, IntervalMonths: 3, Amount: 1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Interval() != 1 {
		t.Errorf("expected interval 1, got %d", o.Interval())
	}
}

func TestParseObligation_ValidationFailures(t *testing.T) {
	// GIVEN: definitions violating field constraints
	// WHEN: parsing each
	// THEN: each is rejected with a telling message

	cases := []struct {
		name string
		oj   factory.ObligationJSON
		want string
	}{
		{"missing id", factory.ObligationJSON{Name: "x", Kind: "UTILITY", DueDay: 1}, "id is required"},
		{"unknown kind", factory.ObligationJSON{ID: "a", Name: "x", Kind: "LOTTERY", DueDay: 1}, "kind"},
		{"due day 0", factory.ObligationJSON{ID: "a", Name: "x", Kind: "UTILITY", DueDay: 0}, "due_day"},
		{"due day 29", factory.ObligationJSON{ID: "a", Name: "x", Kind: "UTILITY", DueDay: 29}, "due_day"},
		{"bad interval", factory.ObligationJSON{ID: "a", Name: "x", Kind: "UTILITY", DueDay: 1, IntervalMonths: 5}, "interval_months"},
		{"inverted estimates", factory.ObligationJSON{ID: "a", Name: "x", Kind: "UTILITY", DueDay: 1, EstimateMin: 50, EstimateMax: 10}, "estimate_min"},
		{"negative rate", factory.ObligationJSON{ID: "a", Name: "x", Kind: "MORTGAGE", DueDay: 1, InterestRate: -1}, "interest_rate"},
		{"inverted pause", factory.ObligationJSON{ID: "a", Name: "x", Kind: "UTILITY", DueDay: 1, Pauses: []factory.PauseJSON{{From: "2025-06", To: "2025-03"}}}, "inverted"},
	}
	for _, tc := range cases {
		_, err := newFactory().FromJSON(tc.oj)
		if err == nil {
			t.Errorf("%s: expected error, got none", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestObligationJSON_RoundTrip(t *testing.T) {
	// GIVEN: a parsed obligation with pauses and dates
	// WHEN: converting back to JSON form and parsing again
	// THEN: the second parse equals the first

	f := newFactory()
	original, err := f.FromJSON(factory.ObligationJSON{
		ID: "s-1", Name: "Streaming", Kind: "SUBSCRIPTION", DueDay: 3,
		Amount: 15.99, StartDate: "2024-02-01",
		Pauses: []factory.PauseJSON{{From: "2025-03", To: "2025-04", Note: "trip"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again, err := f.FromJSON(f.ToJSON(original))
	if err != nil {
		t.Fatalf("round trip parse: %v", err)
	}
	if again.Name != original.Name || len(again.Pauses) != 1 || again.Pauses[0].Note != "trip" {
		t.Error("round trip lost fields")
	}
	if again.StartDate == nil || !again.StartDate.Equal(*original.StartDate) {
		t.Error("round trip lost start date")
	}
	if !again.Amount.Equal(original.Amount) {
		t.Errorf("round trip amount mismatch: %s vs %s", again.Amount, original.Amount)
	}
}

// =============================================================================
// TERMS AND PAYMENT PARSING TESTS
// =============================================================================

func TestTermsFromJSON_NilFieldsStayNil(t *testing.T) {
	// GIVEN: a rate-only override
	// WHEN: converting
	// THEN: every other field remains un-overridden

	rate := 3.9
	s, err := newFactory().TermsFromJSON("m-1", factory.TermsJSON{From: "2025-06", InterestRate: &rate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Amount != nil || s.MonthlyFee != nil || s.HasMonthlyFee != nil {
		t.Error("unset fields must stay nil")
	}
	if s.InterestRate == nil || !s.InterestRate.Equal(decimalFrom(3.9)) {
		t.Errorf("expected rate 3.9, got %v", s.InterestRate)
	}
}

func TestTermsFromJSON_RejectsBadInput(t *testing.T) {
	f := newFactory()
	if _, err := f.TermsFromJSON("m-1", factory.TermsJSON{From: "June 2025"}); err == nil {
		t.Error("expected error for malformed from month")
	}
	lo, hi := 100.0, 50.0
	if _, err := f.TermsFromJSON("m-1", factory.TermsJSON{From: "2025-06", EstimateMin: &lo, EstimateMax: &hi}); err == nil {
		t.Error("expected error for inverted estimates")
	}
}

func TestPaymentFromJSON_DefaultsAndValidation(t *testing.T) {
	// GIVEN: a minimal PAID payment
	// WHEN: converting
	// THEN: kind defaults to MAIN and paid_at to the period start

	f := newFactory()
	p, err := f.PaymentFromJSON("m-1", factory.PaymentJSON{Period: "2025-05", Status: "PAID", Amount: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != engine.PaymentMain {
		t.Errorf("expected MAIN, got %s", p.Kind)
	}
	if p.PaidAt != engine.PeriodKey("2025-05").MonthStart() {
		t.Errorf("expected paid_at defaulted to month start, got %v", p.PaidAt)
	}

	// SKIPPED needs no amount.
	if _, err := f.PaymentFromJSON("m-1", factory.PaymentJSON{Period: "2025-05", Status: "SKIPPED"}); err != nil {
		t.Errorf("skipped without amount should parse: %v", err)
	}
	// EXTRA kind and status must travel together.
	if _, err := f.PaymentFromJSON("m-1", factory.PaymentJSON{Period: "2025-05", Kind: "EXTRA", Status: "PAID", Amount: 100}); err == nil {
		t.Error("expected error for EXTRA kind with PAID status")
	}
	if _, err := f.PaymentFromJSON("m-1", factory.PaymentJSON{Period: "2025-05", Status: "PAID"}); err == nil {
		t.Error("expected error for PAID without amount")
	}
}

// =============================================================================
// SCENARIO PARSING TESTS
// =============================================================================

func TestScenarioFromJSON(t *testing.T) {
	// GIVEN: a scenario JSON with every adjustment type
	// WHEN: converting
	// THEN: all parts come through typed

	override := 2000.0
	var sj factory.ScenarioJSON
	sj.RateChanges = []struct {
		From string  `json:"from"`
		Rate float64 `json:"rate"`
	}{{From: "2026-01", Rate: 3.5}}
	sj.OneTimeExtras = []struct {
		Period string  `json:"period"`
		Amount float64 `json:"amount"`
	}{{Period: "2025-12", Amount: 10000}}
	sj.PaymentOverride = &override

	s, err := newFactory().ScenarioFromJSON(sj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.RateChanges) != 1 || s.RateChanges[0].From != engine.PeriodKey("2026-01") {
		t.Errorf("rate change lost: %+v", s.RateChanges)
	}
	if len(s.OneTimeExtras) != 1 || !s.OneTimeExtras[0].Amount.Equal(decimalFrom(10000)) {
		t.Errorf("one-time extra lost: %+v", s.OneTimeExtras)
	}
	if s.PaymentOverride == nil || !s.PaymentOverride.Equal(decimalFrom(2000)) {
		t.Errorf("payment override lost: %v", s.PaymentOverride)
	}
}
