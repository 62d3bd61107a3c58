/*
handlers.go - HTTP API handlers for the obligation engine

PURPOSE:
  Exposes the obligation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Obligations:
    GET    /api/obligations              List all obligations
    POST   /api/obligations              Create obligation
    GET    /api/obligations/{id}         Get obligation details
    PUT    /api/obligations/{id}         Replace obligation
    DELETE /api/obligations/{id}         Delete obligation (cascades)

  Terms:
    GET    /api/obligations/{id}/terms          List terms history
    POST   /api/obligations/{id}/terms          Record a terms snapshot
    DELETE /api/obligations/{id}/terms/{from}   Delete one snapshot

  Payments:
    GET    /api/obligations/{id}/payments           List payment records
    POST   /api/obligations/{id}/payments           Record a payment
    DELETE /api/obligations/{id}/payments/{period}  Delete record (?kind=)

  Engine:
    GET    /api/obligations/{id}/plan      Amortization schedule
    POST   /api/obligations/{id}/simulate  What-if simulation
    GET    /api/forecast                   Dashboard grid

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (engine.Store interface)
  - Factory: JSON to Obligation conversion

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (plan, simulate, forecast)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

BALANCE MAINTENANCE:
  Writing or deleting a mortgage payment record replays the amortization
  schedule over the recorded span and persists the new remaining balance.
  The replay seeds from the initial balance, so it only runs for
  obligations that carry one.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fintrack/obligation-engine/engine"
	"github.com/fintrack/obligation-engine/factory"
)

// Forecast window defaults when the query string leaves them out.
const (
	defaultForecastForward = 12
	defaultForecastBack    = 3
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   engine.Store
	Factory *factory.ObligationFactory

	// Track currently loaded scenario
	currentScenario string

	// Overridable clock for tests
	now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store engine.Store) *Handler {
	return &Handler{
		Store:   store,
		Factory: factory.NewObligationFactory(),
		now:     time.Now,
	}
}

// =============================================================================
// OBLIGATION ENDPOINTS
// =============================================================================

// ListObligations returns all obligations.
func (h *Handler) ListObligations(w http.ResponseWriter, r *http.Request) {
	obligations, err := h.Store.ListObligations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list obligations", err)
		return
	}

	dtos := make([]ObligationDTO, 0, len(obligations))
	for _, o := range obligations {
		dtos = append(dtos, h.toObligationDTO(r.Context(), o))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetObligation returns one obligation by ID.
func (h *Handler) GetObligation(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	o, err := h.Store.GetObligation(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get obligation", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toObligationDTO(r.Context(), o))
}

// CreateObligation creates a new obligation from JSON.
func (h *Handler) CreateObligation(w http.ResponseWriter, r *http.Request) {
	var oj factory.ObligationJSON
	if err := json.NewDecoder(r.Body).Decode(&oj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	o, err := h.Factory.FromJSON(oj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid obligation", err)
		return
	}

	if err := h.Store.PutObligation(r.Context(), o); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save obligation", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toObligationDTO(r.Context(), o))
}

// UpdateObligation replaces an existing obligation. The body's ID must
// match the URL.
func (h *Handler) UpdateObligation(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetObligation(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to get obligation", err)
		return
	}

	var oj factory.ObligationJSON
	if err := json.NewDecoder(r.Body).Decode(&oj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if oj.ID != "" && oj.ID != string(id) {
		writeError(w, http.StatusBadRequest, "Body id does not match URL", nil)
		return
	}
	oj.ID = string(id)

	o, err := h.Factory.FromJSON(oj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid obligation", err)
		return
	}

	if err := h.Store.PutObligation(r.Context(), o); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save obligation", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toObligationDTO(r.Context(), o))
}

// DeleteObligation removes an obligation and its terms and payments.
func (h *Handler) DeleteObligation(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteObligation(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to delete obligation", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TERMS ENDPOINTS
// =============================================================================

// ListTerms returns an obligation's terms history, oldest first.
func (h *Handler) ListTerms(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetObligation(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to get obligation", err)
		return
	}

	history, err := h.Store.ListTerms(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list terms", err)
		return
	}

	dtos := make([]TermsSnapshotDTO, 0, len(history))
	for _, s := range history {
		dtos = append(dtos, toTermsDTO(s))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// PutTerms records a terms snapshot. Writing the same from-month twice
// replaces the earlier snapshot.
func (h *Handler) PutTerms(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetObligation(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to get obligation", err)
		return
	}

	var tj factory.TermsJSON
	if err := json.NewDecoder(r.Body).Decode(&tj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snapshot, err := h.Factory.TermsFromJSON(id, tj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid terms snapshot", err)
		return
	}

	if err := h.Store.PutTerms(r.Context(), snapshot); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save terms", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTermsDTO(snapshot))
}

// DeleteTerms removes the snapshot for one from-month.
func (h *Handler) DeleteTerms(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	from, err := engine.ParsePeriodKey(chi.URLParam(r, "from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from period (use YYYY-MM)", err)
		return
	}

	if err := h.Store.DeleteTerms(r.Context(), id, from); err != nil {
		writeEngineError(w, "Failed to delete terms", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENT ENDPOINTS
// =============================================================================

// ListPayments returns an obligation's payment records ordered by period.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetObligation(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to get obligation", err)
		return
	}

	records, err := h.Store.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, 0, len(records))
	for _, p := range records {
		dtos = append(dtos, toPaymentDTO(p))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// RecordPayment records a payment. Writing the same (period, kind) slot
// twice replaces the earlier record. Mortgage balances are replayed
// afterwards.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	o, err := h.Store.GetObligation(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get obligation", err)
		return
	}

	var pj RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	record, err := h.Factory.PaymentFromJSON(id, pj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment", err)
		return
	}

	if err := h.Store.PutPayment(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save payment", err)
		return
	}

	if err := h.recomputeBalance(r.Context(), o); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update balance", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentDTO(record))
}

// DeletePayment removes the record for one period. The kind defaults to
// MAIN; pass ?kind=EXTRA to remove an extra-principal record.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	o, err := h.Store.GetObligation(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get obligation", err)
		return
	}

	period, err := engine.ParsePeriodKey(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM)", err)
		return
	}

	kind := engine.PaymentMain
	if k := r.URL.Query().Get("kind"); k != "" {
		kind = engine.PaymentKind(k)
		if kind != engine.PaymentMain && kind != engine.PaymentExtra {
			writeError(w, http.StatusBadRequest, "Invalid kind (use MAIN or EXTRA)", nil)
			return
		}
	}

	if err := h.Store.DeletePayment(r.Context(), id, period, kind); err != nil {
		writeEngineError(w, "Failed to delete payment", err)
		return
	}

	if err := h.recomputeBalance(r.Context(), o); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update balance", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// recomputeBalance replays the amortization schedule over the recorded
// span and persists the resulting remaining balance. Only mortgages with
// an initial balance participate; for anything else the remaining balance
// is whatever the user last entered.
func (h *Handler) recomputeBalance(ctx context.Context, o engine.Obligation) error {
	if !o.IsMortgage() || !o.InitialBalance.IsPositive() {
		return nil
	}

	payments, err := h.Store.ListPayments(ctx, o.ID)
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		o.RemainingBalance = o.InitialBalance
		return h.Store.PutObligation(ctx, o)
	}

	first := payments[0].Period
	last := payments[0].Period
	for _, p := range payments[1:] {
		if p.Period.Before(first) {
			first = p.Period
		}
		if last.Before(p.Period) {
			last = p.Period
		}
	}

	history, err := h.Store.ListTerms(ctx, o.ID)
	if err != nil {
		return err
	}

	// Seed the replay from origination, not the stored balance.
	replay := o
	replay.RemainingBalance = decimal.Zero

	months := last.MonthsSince(first) + 1
	plan, err := engine.BuildPlan(replay, history, payments, first, months)
	if err != nil {
		return err
	}

	balance := o.InitialBalance
	if n := len(plan.Rows); n > 0 {
		balance = plan.Rows[n-1].BalanceEnd
	}

	o.RemainingBalance = balance
	return h.Store.PutObligation(ctx, o)
}

// =============================================================================
// PLAN AND SIMULATION ENDPOINTS
// =============================================================================

// GetPlan returns the amortization schedule for a mortgage.
// Query: from=YYYY-MM (default: current month), months=N (1..600,
// default 12).
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	o, err := h.Store.GetObligation(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get obligation", err)
		return
	}

	from := engine.PeriodOf(h.now())
	if s := r.URL.Query().Get("from"); s != "" {
		from, err = engine.ParsePeriodKey(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from period (use YYYY-MM)", err)
			return
		}
	}

	months := 12
	if s := r.URL.Query().Get("months"); s != "" {
		months, err = strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid months value", err)
			return
		}
	}

	history, err := h.Store.ListTerms(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list terms", err)
		return
	}
	payments, err := h.Store.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	plan, err := engine.BuildPlan(o, history, payments, from, months)
	if err != nil {
		writeEngineError(w, "Failed to build plan", err)
		return
	}

	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// Simulate runs a what-if projection against a scenario layered on top
// of the recorded payment history.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	id := engine.ObligationID(chi.URLParam(r, "id"))

	o, err := h.Store.GetObligation(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get obligation", err)
		return
	}

	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	from := engine.PeriodOf(h.now())
	if req.From != "" {
		from, err = engine.ParsePeriodKey(req.From)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from period (use YYYY-MM)", err)
			return
		}
	}

	months := req.Months
	if months == 0 {
		months = 12
	}

	scenario, err := h.Factory.ScenarioFromJSON(req.Scenario)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scenario", err)
		return
	}

	history, err := h.Store.ListTerms(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list terms", err)
		return
	}
	payments, err := h.Store.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	sim, err := engine.Simulate(o, history, payments, scenario, from, months)
	if err != nil {
		writeEngineError(w, "Failed to simulate", err)
		return
	}

	writeJSON(w, http.StatusOK, toSimulationDTO(sim))
}

// =============================================================================
// FORECAST ENDPOINT
// =============================================================================

// GetForecast returns the dashboard grid.
// Query: months=N (3..24, default 12), back=M (0..24, default 3),
// kind=KIND filter, now=YYYY-MM-DD override (mostly for tests).
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	if s := r.URL.Query().Get("now"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid now date (use YYYY-MM-DD)", err)
			return
		}
		now = parsed
	}

	forward := defaultForecastForward
	if s := r.URL.Query().Get("months"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid months value", err)
			return
		}
		forward = v
	}

	back := defaultForecastBack
	if s := r.URL.Query().Get("back"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid back value", err)
			return
		}
		back = v
	}

	var kindFilter engine.Kind
	if s := r.URL.Query().Get("kind"); s != "" {
		kindFilter = engine.NormalizeKind(engine.Kind(s))
		if !kindFilter.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid kind filter", nil)
			return
		}
	}

	obligations, err := h.Store.ListObligations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list obligations", err)
		return
	}
	terms, err := h.Store.AllTerms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list terms", err)
		return
	}
	payments, err := h.Store.AllPayments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	forecast, err := engine.BuildForecast(engine.ForecastInput{
		Obligations: obligations,
		Terms:       terms,
		Payments:    payments,
		Now:         now,
		Forward:     forward,
		Back:        back,
		KindFilter:  kindFilter,
	})
	if err != nil {
		writeEngineError(w, "Failed to build forecast", err)
		return
	}

	writeJSON(w, http.StatusOK, toForecastDTO(forecast))
}

// =============================================================================
// DTO CONVERSION
// =============================================================================

func (h *Handler) toObligationDTO(ctx context.Context, o engine.Obligation) ObligationDTO {
	dto := ObligationDTO{ObligationJSON: h.Factory.ToJSON(o)}

	if o.IsMortgage() && o.SeedBalance().IsPositive() {
		terms := h.effectiveTermsNow(ctx, o)
		est := toFloat(engine.FlatMonthlyInterest(o.SeedBalance(), terms.InterestRate))
		dto.EstMonthlyInterest = &est
		if months, ok := engine.MonthsToPayoff(o.SeedBalance(), terms.InterestRate, terms.Amount, terms.Fee()); ok {
			dto.MonthsLeft = &months
		}
	}

	return dto
}

func (h *Handler) effectiveTermsNow(ctx context.Context, o engine.Obligation) engine.EffectiveTerms {
	history, err := h.Store.ListTerms(ctx, o.ID)
	if err != nil {
		history = nil
	}
	return engine.ResolveTerms(o, history, engine.PeriodOf(h.now()))
}

func toTermsDTO(s engine.TermsSnapshot) TermsSnapshotDTO {
	return TermsSnapshotDTO{
		ObligationID: string(s.ObligationID),
		TermsJSON: factory.TermsJSON{
			From:          s.From.String(),
			Amount:        toFloatPtr(s.Amount),
			EstimateMin:   toFloatPtr(s.EstimateMin),
			EstimateMax:   toFloatPtr(s.EstimateMax),
			InterestRate:  toFloatPtr(s.InterestRate),
			HasMonthlyFee: s.HasMonthlyFee,
			MonthlyFee:    toFloatPtr(s.MonthlyFee),
			Note:          s.Note,
		},
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine errors onto HTTP status codes.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
