/*
Persistence interface for obligations and related data.

PURPOSE:
  Defines the interface between the engine's callers and the database.
  The engine itself never touches a store; handlers fetch collections
  through these interfaces and hand plain slices to the pure functions.

KEY INTERFACES:
  ObligationStore: Obligation CRUD
  TermsStore:      Effective-dated terms snapshot history
  PaymentStore:    Payment records, unique per (obligation, period, kind)
  Store:           The three combined, plus Reset for demo reloads

UNIQUENESS CONTRACT:
  - Terms snapshots are unique per (obligation, from-month); writing the
    same month again replaces the earlier snapshot.
  - Payment records are unique per (obligation, period, kind); recording
    a period twice replaces the earlier record. Corrections are therefore
    plain overwrites, not reversal entries.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - engine/store/memory.go: In-memory for testing

SEE ALSO:
  - api/handlers.go: the only consumer of these interfaces
*/
package engine

import "context"

// =============================================================================
// OBLIGATION STORE
// =============================================================================

// ObligationStore handles obligation persistence.
type ObligationStore interface {
	// PutObligation inserts or replaces an obligation by ID.
	PutObligation(ctx context.Context, o Obligation) error

	// GetObligation returns one obligation. ErrNotFound when absent.
	GetObligation(ctx context.Context, id ObligationID) (Obligation, error)

	// ListObligations returns every obligation, stable order by name.
	ListObligations(ctx context.Context) ([]Obligation, error)

	// DeleteObligation removes an obligation and its terms and payments.
	DeleteObligation(ctx context.Context, id ObligationID) error
}

// =============================================================================
// TERMS STORE
// =============================================================================

// TermsStore handles terms snapshot history.
type TermsStore interface {
	// PutTerms inserts or replaces the snapshot keyed by (obligation, from).
	PutTerms(ctx context.Context, s TermsSnapshot) error

	// ListTerms returns an obligation's history ordered by From ascending.
	ListTerms(ctx context.Context, id ObligationID) ([]TermsSnapshot, error)

	// AllTerms returns every snapshot across obligations.
	AllTerms(ctx context.Context) ([]TermsSnapshot, error)

	// DeleteTerms removes the snapshot for one from-month.
	DeleteTerms(ctx context.Context, id ObligationID, from PeriodKey) error
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

// PaymentStore handles payment records.
type PaymentStore interface {
	// PutPayment inserts or replaces the record keyed by
	// (obligation, period, kind).
	PutPayment(ctx context.Context, p PaymentRecord) error

	// ListPayments returns an obligation's records ordered by Period.
	ListPayments(ctx context.Context, id ObligationID) ([]PaymentRecord, error)

	// AllPayments returns every record across obligations.
	AllPayments(ctx context.Context) ([]PaymentRecord, error)

	// DeletePayment removes the record for one period and kind.
	DeletePayment(ctx context.Context, id ObligationID, period PeriodKey, kind PaymentKind) error
}

// =============================================================================
// COMBINED STORE
// =============================================================================

// Store is the full persistence surface the API layer works against.
type Store interface {
	ObligationStore
	TermsStore
	PaymentStore

	// Reset drops all data. Used by demo-scenario loading and tests.
	Reset(ctx context.Context) error
}
