package store_test

import (
	"context"
	"testing"

	"github.com/fintrack/obligation-engine/engine"
	"github.com/fintrack/obligation-engine/engine/store"
	"github.com/shopspring/decimal"
)

var _ engine.Store = (*store.Memory)(nil)

func d(v string) decimal.Decimal {
	x, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return x
}

func utilityFixture(id engine.ObligationID, name string) engine.Obligation {
	return engine.Obligation{
		ID:             id,
		Name:           name,
		Kind:           engine.KindUtility,
		DueDay:         25,
		IntervalMonths: 1,
		StartMonth:     1,
		Active:         true,
		Amount:         d("100"),
	}
}

func TestMemory_ObligationLifecycle(t *testing.T) {
	// GIVEN: two saved obligations
	// WHEN: listing, fetching and deleting
	// THEN: listing is name-ordered and deletes surface ErrNotFound afterwards

	m := store.NewMemory()
	ctx := context.Background()

	if err := m.PutObligation(ctx, utilityFixture("u-2", "Water")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.PutObligation(ctx, utilityFixture("u-1", "Electricity")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, err := m.ListObligations(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Electricity" || list[1].Name != "Water" {
		t.Fatalf("expected name-ordered list, got %+v", list)
	}

	if err := m.DeleteObligation(ctx, "u-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.GetObligation(ctx, "u-1"); err != engine.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := m.DeleteObligation(ctx, "u-1"); err != engine.ErrNotFound {
		t.Errorf("expected ErrNotFound for double delete, got %v", err)
	}
}

func TestMemory_TermsSortedAndReplaced(t *testing.T) {
	// GIVEN: snapshots saved out of order plus a same-month rewrite
	// WHEN: listing the history
	// THEN: it comes back sorted by from-month with the rewrite in place

	m := store.NewMemory()
	ctx := context.Background()

	for _, s := range []struct {
		from string
		rate string
	}{
		{"2025-06", "4.6"},
		{"2025-01", "3.2"},
		{"2025-06", "4.4"}, // replaces the first June snapshot
	} {
		rate := d(s.rate)
		if err := m.PutTerms(ctx, engine.TermsSnapshot{
			ObligationID: "u-1", From: engine.PeriodKey(s.from), InterestRate: &rate,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	history, err := m.ListTerms(ctx, "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(history))
	}
	if history[0].From != "2025-01" || history[1].From != "2025-06" {
		t.Errorf("expected sorted history, got %s then %s", history[0].From, history[1].From)
	}
	if !history[1].InterestRate.Equal(d("4.4")) {
		t.Errorf("expected June rewrite 4.4, got %s", history[1].InterestRate)
	}

	if err := m.DeleteTerms(ctx, "u-1", "2025-03"); err != engine.ErrNotFound {
		t.Errorf("expected ErrNotFound for absent month, got %v", err)
	}
}

func TestMemory_PaymentSlotUniqueness(t *testing.T) {
	// GIVEN: MAIN and EXTRA records for one period
	// WHEN: rewriting the MAIN slot
	// THEN: two records remain and the MAIN carries the new amount

	m := store.NewMemory()
	ctx := context.Background()

	records := []engine.PaymentRecord{
		{ObligationID: "m-1", Period: "2025-05", Kind: engine.PaymentMain, Status: engine.StatusPartial, Amount: d("700")},
		{ObligationID: "m-1", Period: "2025-05", Kind: engine.PaymentExtra, Status: engine.StatusExtra, Amount: d("5000")},
		{ObligationID: "m-1", Period: "2025-05", Kind: engine.PaymentMain, Status: engine.StatusPaid, Amount: d("1450")},
	}
	for _, p := range records {
		if err := m.PutPayment(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := m.ListPayments(ctx, "m-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	for _, p := range got {
		if p.Kind == engine.PaymentMain && !p.Amount.Equal(d("1450")) {
			t.Errorf("expected rewritten MAIN amount 1450, got %s", p.Amount)
		}
	}

	if err := m.DeletePayment(ctx, "m-1", "2025-05", engine.PaymentExtra); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.DeletePayment(ctx, "m-1", "2025-05", engine.PaymentExtra); err != engine.ErrNotFound {
		t.Errorf("expected ErrNotFound for double delete, got %v", err)
	}
}

func TestMemory_ResetDropsEverything(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.PutObligation(ctx, utilityFixture("u-1", "Electricity")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Reset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, err := m.ListObligations(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty store after reset, got %d obligations", len(list))
	}
}
