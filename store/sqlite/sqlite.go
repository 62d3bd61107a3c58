/*
Package sqlite provides a SQLite-backed implementation of engine.Store.

PURPOSE:
  Persists obligations, terms snapshots and payment records using SQLite.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  obligations:     One row per recurring commitment
  terms_snapshots: Effective-dated overrides, unique per (obligation, from)
  payments:        Payment records, unique per (obligation, period, kind)

UNIQUENESS:
  The snapshot and payment uniqueness contracts from engine.Store are
  enforced with composite primary keys plus upsert writes: recording the
  same month or period again replaces the earlier row.

MONEY:
  Decimal values are stored as TEXT and parsed with shopspring/decimal
  on read. Never store money as REAL.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/fintrack.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fintrack/obligation-engine/engine"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Obligations (one row per recurring commitment)
	CREATE TABLE IF NOT EXISTS obligations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		due_day INTEGER NOT NULL,
		interval_months INTEGER NOT NULL DEFAULT 1,
		start_month INTEGER NOT NULL DEFAULT 1,
		start_date TEXT,
		end_date TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		amount TEXT NOT NULL,
		estimate_min TEXT NOT NULL,
		estimate_max TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		has_monthly_fee BOOLEAN NOT NULL DEFAULT FALSE,
		monthly_fee TEXT NOT NULL,
		remaining_balance TEXT NOT NULL,
		initial_balance TEXT NOT NULL,
		mortgage_holder TEXT,
		mortgage_kind TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_obligations_kind
		ON obligations(kind);
	CREATE INDEX IF NOT EXISTS idx_obligations_active
		ON obligations(active);

	-- Pause periods (closed month ranges)
	CREATE TABLE IF NOT EXISTS pauses (
		obligation_id TEXT NOT NULL,
		from_period TEXT NOT NULL,
		to_period TEXT NOT NULL,
		note TEXT,
		PRIMARY KEY (obligation_id, from_period)
	);

	-- Terms snapshots (effective-dated overrides, NULL = not overridden)
	CREATE TABLE IF NOT EXISTS terms_snapshots (
		obligation_id TEXT NOT NULL,
		from_period TEXT NOT NULL,
		amount TEXT,
		estimate_min TEXT,
		estimate_max TEXT,
		interest_rate TEXT,
		has_monthly_fee BOOLEAN,
		monthly_fee TEXT,
		note TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (obligation_id, from_period)
	);

	-- Payment records, one MAIN and one EXTRA slot per period
	CREATE TABLE IF NOT EXISTS payments (
		obligation_id TEXT NOT NULL,
		period TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_at TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (obligation_id, period, kind)
	);

	-- Composite index for forecast-window payment loads (hot path)
	CREATE INDEX IF NOT EXISTS idx_payments_period
		ON payments(period);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// OBLIGATION STORE (engine.ObligationStore interface)
// =============================================================================

// PutObligation inserts or replaces an obligation.
func (s *Store) PutObligation(ctx context.Context, o engine.Obligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO obligations
		(id, name, kind, due_day, interval_months, start_month, start_date, end_date,
		 active, amount, estimate_min, estimate_max, interest_rate, has_monthly_fee,
		 monthly_fee, remaining_balance, initial_balance, mortgage_holder, mortgage_kind,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			due_day = excluded.due_day,
			interval_months = excluded.interval_months,
			start_month = excluded.start_month,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			active = excluded.active,
			amount = excluded.amount,
			estimate_min = excluded.estimate_min,
			estimate_max = excluded.estimate_max,
			interest_rate = excluded.interest_rate,
			has_monthly_fee = excluded.has_monthly_fee,
			monthly_fee = excluded.monthly_fee,
			remaining_balance = excluded.remaining_balance,
			initial_balance = excluded.initial_balance,
			mortgage_holder = excluded.mortgage_holder,
			mortgage_kind = excluded.mortgage_kind,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		o.ID, o.Name, string(engine.NormalizeKind(o.Kind)), o.DueDay, o.Interval(),
		o.StartMonth, nullDate(o.StartDate), nullDate(o.EndDate), o.Active,
		o.Amount.String(), o.EstimateMin.String(), o.EstimateMax.String(),
		o.InterestRate.String(), o.HasMonthlyFee, o.MonthlyFee.String(),
		o.RemainingBalance.String(), o.InitialBalance.String(),
		o.MortgageHolder, o.MortgageKind, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save obligation: %w", err)
	}

	// Pauses are replaced wholesale with the obligation.
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pauses WHERE obligation_id = ?", o.ID); err != nil {
		return err
	}
	for _, p := range o.Pauses {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO pauses (obligation_id, from_period, to_period, note) VALUES (?, ?, ?, ?)",
			o.ID, p.From.String(), p.To.String(), p.Note,
		)
		if err != nil {
			return fmt.Errorf("failed to save pause: %w", err)
		}
	}
	return nil
}

// GetObligation retrieves an obligation by ID.
func (s *Store) GetObligation(ctx context.Context, id engine.ObligationID) (engine.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryObligations(ctx, obligationSelect+" WHERE id = ?", id)
	if err != nil {
		return engine.Obligation{}, err
	}
	if len(rows) == 0 {
		return engine.Obligation{}, engine.ErrNotFound
	}
	return rows[0], nil
}

// ListObligations returns all obligations ordered by name.
func (s *Store) ListObligations(ctx context.Context) ([]engine.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryObligations(ctx, obligationSelect+" ORDER BY name, id")
}

// DeleteObligation removes an obligation and its dependent rows.
func (s *Store) DeleteObligation(ctx context.Context, id engine.ObligationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM obligations WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrNotFound
	}
	for _, table := range []string{"pauses", "terms_snapshots", "payments"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE obligation_id = ?", id); err != nil {
			return err
		}
	}
	return nil
}

const obligationSelect = `
	SELECT id, name, kind, due_day, interval_months, start_month, start_date, end_date,
	       active, amount, estimate_min, estimate_max, interest_rate, has_monthly_fee,
	       monthly_fee, remaining_balance, initial_balance, mortgage_holder, mortgage_kind
	FROM obligations`

func (s *Store) queryObligations(ctx context.Context, query string, args ...any) ([]engine.Obligation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query obligations: %w", err)
	}
	defer rows.Close()

	var obligations []engine.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range obligations {
		pauses, err := s.loadPauses(ctx, obligations[i].ID)
		if err != nil {
			return nil, err
		}
		obligations[i].Pauses = pauses
	}
	return obligations, nil
}

func scanObligation(rows *sql.Rows) (engine.Obligation, error) {
	var (
		o                      engine.Obligation
		kind                   string
		startDate, endDate     sql.NullString
		amount, estMin, estMax string
		rate, fee, remaining   string
		initial                string
		holder, mortgageKind   sql.NullString
	)

	err := rows.Scan(
		&o.ID, &o.Name, &kind, &o.DueDay, &o.IntervalMonths, &o.StartMonth,
		&startDate, &endDate, &o.Active, &amount, &estMin, &estMax, &rate,
		&o.HasMonthlyFee, &fee, &remaining, &initial, &holder, &mortgageKind,
	)
	if err != nil {
		return o, fmt.Errorf("failed to scan obligation: %w", err)
	}

	// Legacy kinds normalize on read.
	o.Kind = engine.NormalizeKind(engine.Kind(kind))
	o.StartDate = parseNullDate(startDate)
	o.EndDate = parseNullDate(endDate)
	o.Amount = mustDecimal(amount)
	o.EstimateMin = mustDecimal(estMin)
	o.EstimateMax = mustDecimal(estMax)
	o.InterestRate = mustDecimal(rate)
	o.MonthlyFee = mustDecimal(fee)
	o.RemainingBalance = mustDecimal(remaining)
	o.InitialBalance = mustDecimal(initial)
	o.MortgageHolder = holder.String
	o.MortgageKind = mortgageKind.String
	return o, nil
}

func (s *Store) loadPauses(ctx context.Context, id engine.ObligationID) ([]engine.PausePeriod, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT from_period, to_period, note FROM pauses WHERE obligation_id = ? ORDER BY from_period",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pauses []engine.PausePeriod
	for rows.Next() {
		var from, to string
		var note sql.NullString
		if err := rows.Scan(&from, &to, &note); err != nil {
			return nil, err
		}
		pauses = append(pauses, engine.PausePeriod{
			From: engine.PeriodKey(from),
			To:   engine.PeriodKey(to),
			Note: note.String,
		})
	}
	return pauses, rows.Err()
}

// =============================================================================
// TERMS STORE (engine.TermsStore interface)
// =============================================================================

// PutTerms inserts or replaces the snapshot for a from-month.
func (s *Store) PutTerms(ctx context.Context, snap engine.TermsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO terms_snapshots
		(obligation_id, from_period, amount, estimate_min, estimate_max,
		 interest_rate, has_monthly_fee, monthly_fee, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(obligation_id, from_period) DO UPDATE SET
			amount = excluded.amount,
			estimate_min = excluded.estimate_min,
			estimate_max = excluded.estimate_max,
			interest_rate = excluded.interest_rate,
			has_monthly_fee = excluded.has_monthly_fee,
			monthly_fee = excluded.monthly_fee,
			note = excluded.note
	`

	var hasFee any
	if snap.HasMonthlyFee != nil {
		hasFee = *snap.HasMonthlyFee
	}
	_, err := s.db.ExecContext(ctx, query,
		snap.ObligationID, snap.From.String(),
		nullDecimal(snap.Amount), nullDecimal(snap.EstimateMin), nullDecimal(snap.EstimateMax),
		nullDecimal(snap.InterestRate), hasFee, nullDecimal(snap.MonthlyFee),
		snap.Note, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save terms snapshot: %w", err)
	}
	return nil
}

// ListTerms returns an obligation's history ordered by from-month.
func (s *Store) ListTerms(ctx context.Context, id engine.ObligationID) ([]engine.TermsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTerms(ctx, termsSelect+" WHERE obligation_id = ? ORDER BY from_period", id)
}

// AllTerms returns every snapshot.
func (s *Store) AllTerms(ctx context.Context) ([]engine.TermsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTerms(ctx, termsSelect+" ORDER BY obligation_id, from_period")
}

// DeleteTerms removes one snapshot.
func (s *Store) DeleteTerms(ctx context.Context, id engine.ObligationID, from engine.PeriodKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM terms_snapshots WHERE obligation_id = ? AND from_period = ?",
		id, from.String(),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

const termsSelect = `
	SELECT obligation_id, from_period, amount, estimate_min, estimate_max,
	       interest_rate, has_monthly_fee, monthly_fee, note
	FROM terms_snapshots`

func (s *Store) queryTerms(ctx context.Context, query string, args ...any) ([]engine.TermsSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query terms snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []engine.TermsSnapshot
	for rows.Next() {
		var (
			snap                   engine.TermsSnapshot
			from                   string
			amount, estMin, estMax sql.NullString
			rate, fee              sql.NullString
			hasFee                 sql.NullBool
			note                   sql.NullString
		)
		if err := rows.Scan(&snap.ObligationID, &from, &amount, &estMin, &estMax,
			&rate, &hasFee, &fee, &note); err != nil {
			return nil, fmt.Errorf("failed to scan terms snapshot: %w", err)
		}
		snap.From = engine.PeriodKey(from)
		snap.Amount = parseNullDecimal(amount)
		snap.EstimateMin = parseNullDecimal(estMin)
		snap.EstimateMax = parseNullDecimal(estMax)
		snap.InterestRate = parseNullDecimal(rate)
		snap.MonthlyFee = parseNullDecimal(fee)
		if hasFee.Valid {
			v := hasFee.Bool
			snap.HasMonthlyFee = &v
		}
		snap.Note = note.String
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// =============================================================================
// PAYMENT STORE (engine.PaymentStore interface)
// =============================================================================

// PutPayment inserts or replaces the record for a (period, kind) slot.
func (s *Store) PutPayment(ctx context.Context, p engine.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payments
		(obligation_id, period, kind, status, amount, paid_at, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(obligation_id, period, kind) DO UPDATE SET
			status = excluded.status,
			amount = excluded.amount,
			paid_at = excluded.paid_at,
			note = excluded.note
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ObligationID, p.Period.String(), string(p.Kind), string(p.Status),
		p.Amount.String(), p.PaidAt.UTC().Format(time.RFC3339), p.Note,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// ListPayments returns an obligation's records ordered by period.
func (s *Store) ListPayments(ctx context.Context, id engine.ObligationID) ([]engine.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayments(ctx, paymentSelect+" WHERE obligation_id = ? ORDER BY period, kind", id)
}

// AllPayments returns every record.
func (s *Store) AllPayments(ctx context.Context) ([]engine.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayments(ctx, paymentSelect+" ORDER BY obligation_id, period, kind")
}

// DeletePayment removes one record.
func (s *Store) DeletePayment(ctx context.Context, id engine.ObligationID, period engine.PeriodKey, kind engine.PaymentKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM payments WHERE obligation_id = ? AND period = ? AND kind = ?",
		id, period.String(), string(kind),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

const paymentSelect = `
	SELECT obligation_id, period, kind, status, amount, paid_at, note
	FROM payments`

func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]engine.PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []engine.PaymentRecord
	for rows.Next() {
		var (
			p              engine.PaymentRecord
			period, kind   string
			status, amount string
			paidAt         string
			note           sql.NullString
		)
		if err := rows.Scan(&p.ObligationID, &period, &kind, &status, &amount, &paidAt, &note); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Period = engine.PeriodKey(period)
		p.Kind = engine.PaymentKind(kind)
		p.Status = engine.PaymentStatus(status)
		p.Amount = mustDecimal(amount)
		p.PaidAt, _ = time.Parse(time.RFC3339, paidAt)
		p.Note = note.String
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"payments", "terms_snapshots", "pauses", "obligations"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func parseNullDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseNullDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid {
		return nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
