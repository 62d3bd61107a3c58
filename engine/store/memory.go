// Package store provides engine.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/fintrack/obligation-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	obligations map[engine.ObligationID]engine.Obligation
	terms       map[engine.ObligationID][]engine.TermsSnapshot
	payments    map[engine.ObligationID][]engine.PaymentRecord
}

func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.obligations = make(map[engine.ObligationID]engine.Obligation)
	m.terms = make(map[engine.ObligationID][]engine.TermsSnapshot)
	m.payments = make(map[engine.ObligationID][]engine.PaymentRecord)
}

// Reset drops all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// =============================================================================
// OBLIGATIONS
// =============================================================================

func (m *Memory) PutObligation(_ context.Context, o engine.Obligation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obligations[o.ID] = o
	return nil
}

func (m *Memory) GetObligation(_ context.Context, id engine.ObligationID) (engine.Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.obligations[id]
	if !ok {
		return engine.Obligation{}, engine.ErrNotFound
	}
	return o, nil
}

func (m *Memory) ListObligations(_ context.Context) ([]engine.Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Obligation, 0, len(m.obligations))
	for _, o := range m.obligations {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeleteObligation(_ context.Context, id engine.ObligationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.obligations[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.obligations, id)
	delete(m.terms, id)
	delete(m.payments, id)
	return nil
}

// =============================================================================
// TERMS SNAPSHOTS
// =============================================================================

func (m *Memory) PutTerms(_ context.Context, s engine.TermsSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.terms[s.ObligationID]
	// Same from-month replaces the earlier snapshot.
	for i := range history {
		if history[i].From == s.From {
			history[i] = s
			return nil
		}
	}

	// Binary search for insertion point keeps history sorted by From.
	i := sort.Search(len(history), func(i int) bool {
		return s.From.Before(history[i].From)
	})
	history = append(history, engine.TermsSnapshot{})
	copy(history[i+1:], history[i:])
	history[i] = s
	m.terms[s.ObligationID] = history
	return nil
}

func (m *Memory) ListTerms(_ context.Context, id engine.ObligationID) ([]engine.TermsSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.terms[id]
	out := make([]engine.TermsSnapshot, len(history))
	copy(out, history)
	return out, nil
}

func (m *Memory) AllTerms(_ context.Context) ([]engine.TermsSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.TermsSnapshot
	for _, history := range m.terms {
		out = append(out, history...)
	}
	return out, nil
}

func (m *Memory) DeleteTerms(_ context.Context, id engine.ObligationID, from engine.PeriodKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.terms[id]
	for i := range history {
		if history[i].From == from {
			m.terms[id] = append(history[:i], history[i+1:]...)
			return nil
		}
	}
	return engine.ErrNotFound
}

// =============================================================================
// PAYMENT RECORDS
// =============================================================================

func (m *Memory) PutPayment(_ context.Context, p engine.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.payments[p.ObligationID]
	// Same (period, kind) replaces the earlier record.
	for i := range records {
		if records[i].Period == p.Period && records[i].Kind == p.Kind {
			records[i] = p
			return nil
		}
	}

	i := sort.Search(len(records), func(i int) bool {
		return p.Period.Before(records[i].Period)
	})
	records = append(records, engine.PaymentRecord{})
	copy(records[i+1:], records[i:])
	records[i] = p
	m.payments[p.ObligationID] = records
	return nil
}

func (m *Memory) ListPayments(_ context.Context, id engine.ObligationID) ([]engine.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := m.payments[id]
	out := make([]engine.PaymentRecord, len(records))
	copy(out, records)
	return out, nil
}

func (m *Memory) AllPayments(_ context.Context) ([]engine.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.PaymentRecord
	for _, records := range m.payments {
		out = append(out, records...)
	}
	return out, nil
}

func (m *Memory) DeletePayment(_ context.Context, id engine.ObligationID, period engine.PeriodKey, kind engine.PaymentKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.payments[id]
	for i := range records {
		if records[i].Period == period && records[i].Kind == kind {
			m.payments[id] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return engine.ErrNotFound
}
