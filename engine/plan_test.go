package engine_test

import (
	"errors"
	"testing"

	"github.com/fintrack/obligation-engine/engine"
)

// =============================================================================
// PLAN BUILDING TESTS
// =============================================================================

func TestBuildPlan_ProjectsFromResolvedTerms(t *testing.T) {
	// GIVEN: the 100000/5%/1000 mortgage, no payment history
	// WHEN: building a 2-month plan from 2025-05
	// THEN: both rows use the terms amount and chain balances

	plan, err := engine.BuildPlan(testMortgage(), nil, nil, pk("2025-05"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(plan.Rows))
	}

	eq(t, "410.96", plan.Rows[0].Interest, "row1 interest")
	eq(t, "99410.96", plan.Rows[0].BalanceEnd, "row1 balanceEnd")
	if plan.Rows[0].Recorded {
		t.Error("row1 should be projected, not recorded")
	}

	// Row 2 spans May 15 -> Jun 15 = 31 days on the reduced balance.
	eq(t, "99410.96", plan.Rows[1].BalanceStart, "row2 starts where row1 ended")
	eq(t, "422.16", plan.Rows[1].Interest, "row2 interest")
	eq(t, "98833.12", plan.Rows[1].BalanceEnd, "row2 balanceEnd")

	eq(t, "833.12", plan.TotalInterest, "total interest")
	eq(t, "1166.88", plan.TotalPrincipal, "total principal")
	eq(t, "2000", plan.TotalPaid, "total paid")
	if plan.PayoffPeriod != nil {
		t.Error("no payoff expected within 2 months")
	}
}

func TestBuildPlan_RecordedPaymentOverridesTerms(t *testing.T) {
	// GIVEN: a recorded 1200 payment for the first month
	// WHEN: building the plan
	// THEN: the recorded amount drives that row

	o := testMortgage()
	payments := []engine.PaymentRecord{
		{ObligationID: o.ID, Period: pk("2025-05"), Kind: engine.PaymentMain, Status: engine.StatusPaid, Amount: d("1200")},
	}

	plan, err := engine.BuildPlan(o, nil, payments, pk("2025-05"), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := plan.Rows[0]
	if !row.Recorded {
		t.Error("row should be marked recorded")
	}
	eq(t, "1200", row.Payment, "payment")
	eq(t, "789.04", row.Principal, "principal")
	eq(t, "99210.96", row.BalanceEnd, "balanceEnd")
}

func TestBuildPlan_SkippedPaymentMovesNoMoney(t *testing.T) {
	// GIVEN: a SKIPPED main record for the first month
	// WHEN: building the plan
	// THEN: payment is zero, the balance holds

	o := testMortgage()
	payments := []engine.PaymentRecord{
		{ObligationID: o.ID, Period: pk("2025-05"), Kind: engine.PaymentMain, Status: engine.StatusSkipped},
	}

	plan, err := engine.BuildPlan(o, nil, payments, pk("2025-05"), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eq(t, "0", plan.Rows[0].Payment, "payment")
	eq(t, "0", plan.Rows[0].Principal, "principal")
	eq(t, "100000", plan.Rows[0].BalanceEnd, "balanceEnd")
}

func TestBuildPlan_ExtraRecordAddsPrincipal(t *testing.T) {
	// GIVEN: an EXTRA record alongside the projected main payment
	// WHEN: building the plan
	// THEN: the extra lands entirely on principal

	o := testMortgage()
	payments := []engine.PaymentRecord{
		{ObligationID: o.ID, Period: pk("2025-05"), Kind: engine.PaymentExtra, Status: engine.StatusExtra, Amount: d("5000")},
	}

	plan, err := engine.BuildPlan(o, nil, payments, pk("2025-05"), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eq(t, "5589.04", plan.Rows[0].Principal, "principal")
	eq(t, "94410.96", plan.Rows[0].BalanceEnd, "balanceEnd")
	eq(t, "5000", plan.TotalExtra, "total extra")
	eq(t, "6000", plan.TotalPaid, "total paid includes extra")
}

func TestBuildPlan_RateChangeTakesEffectAtItsMonth(t *testing.T) {
	// GIVEN: a terms snapshot dropping the rate to 4% from 2025-06
	// WHEN: building a 2-month plan from 2025-05
	// THEN: the second row uses the new rate

	o := testMortgage()
	history := []engine.TermsSnapshot{
		{ObligationID: o.ID, From: pk("2025-06"), InterestRate: dp("4")},
	}

	plan, err := engine.BuildPlan(o, history, nil, pk("2025-05"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eq(t, "5", plan.Rows[0].Rate, "row1 rate")
	eq(t, "4", plan.Rows[1].Rate, "row2 rate")
	// 99410.96 * 4% * 31/365
	eq(t, "337.72", plan.Rows[1].Interest, "row2 interest at new rate")
}

func TestBuildPlan_StopsAtPayoff(t *testing.T) {
	// GIVEN: a 500 balance at 0% with a 1000 payment
	// WHEN: building a 12-month plan
	// THEN: one row, payoff reported on it

	o := testMortgage()
	o.RemainingBalance = d("500")
	o.InterestRate = d("0")

	plan, err := engine.BuildPlan(o, nil, nil, pk("2025-05"), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(plan.Rows))
	}
	eq(t, "0", plan.Rows[0].BalanceEnd, "balanceEnd")
	if plan.PayoffPeriod == nil || *plan.PayoffPeriod != pk("2025-05") {
		t.Errorf("expected payoff at 2025-05, got %v", plan.PayoffPeriod)
	}
	if plan.PayoffDate == nil || plan.PayoffDate.Format("2006-01-02") != "2025-05-15" {
		t.Errorf("expected payoff date 2025-05-15, got %v", plan.PayoffDate)
	}
	if plan.MonthsToPayoff == nil || *plan.MonthsToPayoff != 1 {
		t.Errorf("expected 1 month to payoff, got %v", plan.MonthsToPayoff)
	}
}

func TestBuildPlan_AccumulatesMonthlyFees(t *testing.T) {
	// GIVEN: the mortgage with a 50 monthly fee
	// WHEN: building a 2-month plan
	// THEN: each row carries the fee and the total sums them

	o := testMortgage()
	o.HasMonthlyFee = true
	o.MonthlyFee = d("50")

	plan, err := engine.BuildPlan(o, nil, nil, pk("2025-05"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eq(t, "50", plan.Rows[0].Fee, "row1 fee")
	eq(t, "539.04", plan.Rows[0].Principal, "row1 principal after fee")
	eq(t, "100", plan.TotalFees, "total fees")
}

func TestBuildPlan_SeedsFromInitialBalanceWhenRemainingUnset(t *testing.T) {
	// GIVEN: a mortgage with no tracked remaining balance
	// WHEN: building a plan
	// THEN: the walk starts from the initial balance

	o := testMortgage()
	o.RemainingBalance = d("0")

	plan, err := engine.BuildPlan(o, nil, nil, pk("2025-05"), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eq(t, "150000", plan.Rows[0].BalanceStart, "balanceStart")
}

func TestBuildPlan_RejectsBadInput(t *testing.T) {
	// GIVEN: a non-mortgage obligation and out-of-range horizons
	// WHEN: building plans
	// THEN: the matching sentinel surfaces through errors.Is

	if _, err := engine.BuildPlan(testUtility(), nil, nil, pk("2025-05"), 12); !errors.Is(err, engine.ErrNotMortgage) {
		t.Errorf("expected ErrNotMortgage, got %v", err)
	}
	if _, err := engine.BuildPlan(testMortgage(), nil, nil, pk("2025-05"), 0); !errors.Is(err, engine.ErrInvalidHorizon) {
		t.Errorf("expected ErrInvalidHorizon for 0, got %v", err)
	}
	if _, err := engine.BuildPlan(testMortgage(), nil, nil, pk("2025-05"), 601); !errors.Is(err, engine.ErrInvalidHorizon) {
		t.Errorf("expected ErrInvalidHorizon for 601, got %v", err)
	}
	if !engine.IsClientError(engine.ErrInvalidHorizon) {
		t.Error("horizon errors should classify as client errors")
	}
}
