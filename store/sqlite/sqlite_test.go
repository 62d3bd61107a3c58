package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fintrack/obligation-engine/engine"
	"github.com/fintrack/obligation-engine/store/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func d(v string) decimal.Decimal {
	x, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return x
}

func mortgageFixture() engine.Obligation {
	start := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	return engine.Obligation{
		ID:               "m-1",
		Name:             "Home Loan",
		Kind:             engine.KindMortgage,
		DueDay:           15,
		IntervalMonths:   1,
		StartMonth:       1,
		StartDate:        &start,
		Active:           true,
		Amount:           d("1450"),
		InterestRate:     d("4.1"),
		HasMonthlyFee:    true,
		MonthlyFee:       d("45"),
		RemainingBalance: d("255000"),
		InitialBalance:   d("300000"),
		MortgageHolder:   "First National",
		MortgageKind:     "ANNUITY",
		Pauses: []engine.PausePeriod{
			{From: "2025-03", To: "2025-04", Note: "deferral"},
		},
	}
}

// =============================================================================
// OBLIGATION ROUND TRIP
// =============================================================================

func TestSQLiteStore_ObligationRoundTrip(t *testing.T) {
	// GIVEN: a mortgage with dates, decimals and pauses
	// WHEN: saving and reloading it
	// THEN: every field survives

	store := newTestStore(t)
	ctx := context.Background()
	original := mortgageFixture()

	require.NoError(t, store.PutObligation(ctx, original))

	got, err := store.GetObligation(ctx, original.ID)
	require.NoError(t, err)

	assert.Equal(t, original.Name, got.Name)
	assert.Equal(t, engine.KindMortgage, got.Kind)
	assert.Equal(t, 15, got.DueDay)
	assert.True(t, got.Amount.Equal(d("1450")))
	assert.True(t, got.InterestRate.Equal(d("4.1")))
	assert.True(t, got.HasMonthlyFee)
	assert.True(t, got.RemainingBalance.Equal(d("255000")))
	require.NotNil(t, got.StartDate)
	assert.True(t, got.StartDate.Equal(*original.StartDate))
	require.Len(t, got.Pauses, 1)
	assert.Equal(t, "deferral", got.Pauses[0].Note)
}

func TestSQLiteStore_PutObligationReplacesExisting(t *testing.T) {
	// GIVEN: a saved obligation
	// WHEN: saving again with a changed balance and no pauses
	// THEN: the row and its pauses reflect the second save

	store := newTestStore(t)
	ctx := context.Background()

	o := mortgageFixture()
	require.NoError(t, store.PutObligation(ctx, o))

	o.RemainingBalance = d("250000")
	o.Pauses = nil
	require.NoError(t, store.PutObligation(ctx, o))

	got, err := store.GetObligation(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.RemainingBalance.Equal(d("250000")))
	assert.Empty(t, got.Pauses)
}

func TestSQLiteStore_LegacyHousingKindNormalizedOnRead(t *testing.T) {
	// GIVEN: an obligation written with the retired HOUSING kind
	// WHEN: reading it back
	// THEN: the kind comes out as MORTGAGE

	store := newTestStore(t)
	ctx := context.Background()

	o := mortgageFixture()
	o.Kind = "HOUSING"
	require.NoError(t, store.PutObligation(ctx, o))

	got, err := store.GetObligation(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.KindMortgage, got.Kind)
}

func TestSQLiteStore_GetMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetObligation(context.Background(), "nope")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestSQLiteStore_DeleteObligationCascades(t *testing.T) {
	// GIVEN: an obligation with a snapshot and a payment
	// WHEN: deleting the obligation
	// THEN: its dependent rows vanish too

	store := newTestStore(t)
	ctx := context.Background()

	o := mortgageFixture()
	require.NoError(t, store.PutObligation(ctx, o))
	rate := d("3.9")
	require.NoError(t, store.PutTerms(ctx, engine.TermsSnapshot{
		ObligationID: o.ID, From: "2025-06", InterestRate: &rate,
	}))
	require.NoError(t, store.PutPayment(ctx, engine.PaymentRecord{
		ObligationID: o.ID, Period: "2025-05", Kind: engine.PaymentMain,
		Status: engine.StatusPaid, Amount: d("1450"), PaidAt: time.Now().UTC(),
	}))

	require.NoError(t, store.DeleteObligation(ctx, o.ID))

	terms, err := store.ListTerms(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, terms)
	payments, err := store.ListPayments(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

// =============================================================================
// TERMS SNAPSHOTS
// =============================================================================

func TestSQLiteStore_TermsNilFieldsSurvive(t *testing.T) {
	// GIVEN: a rate-only snapshot
	// WHEN: saving and reloading
	// THEN: unset fields stay nil, set fields keep their values

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutObligation(ctx, mortgageFixture()))

	rate := d("3.9")
	require.NoError(t, store.PutTerms(ctx, engine.TermsSnapshot{
		ObligationID: "m-1", From: "2025-06", InterestRate: &rate, Note: "refinance",
	}))

	terms, err := store.ListTerms(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, terms, 1)

	snap := terms[0]
	assert.Nil(t, snap.Amount)
	assert.Nil(t, snap.MonthlyFee)
	assert.Nil(t, snap.HasMonthlyFee)
	require.NotNil(t, snap.InterestRate)
	assert.True(t, snap.InterestRate.Equal(d("3.9")))
	assert.Equal(t, "refinance", snap.Note)
}

func TestSQLiteStore_TermsSameMonthReplaces(t *testing.T) {
	// GIVEN: two snapshots for the same from-month
	// WHEN: saving both
	// THEN: only the second survives

	store := newTestStore(t)
	ctx := context.Background()

	first, second := d("3.9"), d("3.5")
	require.NoError(t, store.PutTerms(ctx, engine.TermsSnapshot{
		ObligationID: "m-1", From: "2025-06", InterestRate: &first,
	}))
	require.NoError(t, store.PutTerms(ctx, engine.TermsSnapshot{
		ObligationID: "m-1", From: "2025-06", InterestRate: &second,
	}))

	terms, err := store.ListTerms(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.True(t, terms[0].InterestRate.Equal(d("3.5")))
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestSQLiteStore_PaymentSlotUniqueness(t *testing.T) {
	// GIVEN: a MAIN payment for a period
	// WHEN: recording the same slot again and an EXTRA for the same period
	// THEN: the MAIN record is replaced and the EXTRA coexists

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.PutPayment(ctx, engine.PaymentRecord{
		ObligationID: "m-1", Period: "2025-05", Kind: engine.PaymentMain,
		Status: engine.StatusPartial, Amount: d("700"), PaidAt: now,
	}))
	require.NoError(t, store.PutPayment(ctx, engine.PaymentRecord{
		ObligationID: "m-1", Period: "2025-05", Kind: engine.PaymentMain,
		Status: engine.StatusPaid, Amount: d("1450"), PaidAt: now,
	}))
	require.NoError(t, store.PutPayment(ctx, engine.PaymentRecord{
		ObligationID: "m-1", Period: "2025-05", Kind: engine.PaymentExtra,
		Status: engine.StatusExtra, Amount: d("5000"), PaidAt: now,
	}))

	payments, err := store.ListPayments(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, payments, 2)

	// Ordered by period then kind: EXTRA before MAIN.
	assert.Equal(t, engine.PaymentExtra, payments[0].Kind)
	assert.Equal(t, engine.PaymentMain, payments[1].Kind)
	assert.Equal(t, engine.StatusPaid, payments[1].Status)
	assert.True(t, payments[1].Amount.Equal(d("1450")))
}

func TestSQLiteStore_DeletePayment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutPayment(ctx, engine.PaymentRecord{
		ObligationID: "m-1", Period: "2025-05", Kind: engine.PaymentMain,
		Status: engine.StatusPaid, Amount: d("100"), PaidAt: time.Now().UTC(),
	}))
	require.NoError(t, store.DeletePayment(ctx, "m-1", "2025-05", engine.PaymentMain))
	assert.ErrorIs(t, store.DeletePayment(ctx, "m-1", "2025-05", engine.PaymentMain), engine.ErrNotFound)
}

// =============================================================================
// RESET
// =============================================================================

func TestSQLiteStore_ResetClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutObligation(ctx, mortgageFixture()))
	require.NoError(t, store.Reset(ctx))

	obligations, err := store.ListObligations(ctx)
	require.NoError(t, err)
	assert.Empty(t, obligations)
}
