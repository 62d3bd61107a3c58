/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates obligations, terms
	history, and payment records that demonstrate specific features.

AVAILABLE SCENARIOS:

	household:       Full household (mortgage, utility, insurance, subscription)
	mortgage-only:   One mortgage with terms history and recorded payments
	rate-hike:       Mortgage that went through two rate changes
	paused-services: Subscriptions paused for a travel window

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create obligations via factory presets
 3. Record terms snapshots (rate changes, premium adjustments)
 4. Record payments for recent months
 5. Replay mortgage balances

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "household"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Error and JSON helpers
  - factory/presets.go: Obligation JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/obligation-engine/engine"
	"github.com/fintrack/obligation-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []DemoScenarioDTO{
	{
		ID:          "household",
		Name:        "Full Household",
		Description: "Mortgage, electricity, quarterly insurance, and a streaming subscription",
	},
	{
		ID:          "mortgage-only",
		Name:        "Mortgage Only",
		Description: "One mortgage with three months of recorded payments and an extra payment",
	},
	{
		ID:          "rate-hike",
		Name:        "Rate Hike",
		Description: "Mortgage that went through two rate increases in its terms history",
	},
	{
		ID:          "paused-services",
		Name:        "Paused Services",
		Description: "Subscriptions paused for a two-month travel window",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, DemoScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = "" // Clear current scenario on reset

	var err error
	switch req.ScenarioID {
	case "household":
		err = h.loadHouseholdScenario(ctx)
	case "mortgage-only":
		err = h.loadMortgageOnlyScenario(ctx)
	case "rate-hike":
		err = h.loadRateHikeScenario(ctx)
	case "paused-services":
		err = h.loadPausedServicesScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	// Track the loaded scenario
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data without loading a scenario.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadHouseholdScenario(ctx context.Context) error {
	// Mortgage: 255k remaining at 4.1%, 1350/month, due on the 15th
	if err := h.createObligationFromJSON(ctx,
		factory.ThirtyYearMortgageJSON("mortgage-main", "Home Mortgage", 255000, 4.1, 1350)); err != nil {
		return err
	}

	// Electricity: fluctuates between 80 and 140, typically 110
	if err := h.createObligationFromJSON(ctx,
		factory.MonthlyUtilityJSON("utility-electric", "Electricity", 110, 80, 140)); err != nil {
		return err
	}

	// Home insurance: 240 premium, billed quarterly from February
	if err := h.createObligationFromJSON(ctx,
		factory.QuarterlyInsuranceJSON("insurance-home", "Home Insurance", 240, 2)); err != nil {
		return err
	}

	// Streaming subscription, due on the 1st
	if err := h.createObligationFromJSON(ctx,
		factory.SubscriptionJSON("sub-streaming", "Streaming Service", 15.99, 1)); err != nil {
		return err
	}

	// Rate changed three months ago
	now := engine.PeriodOf(time.Now())
	if err := h.putRate(ctx, "mortgage-main", now.AddMonths(-3), 4.35, "bank repriced"); err != nil {
		return err
	}

	// Record the last two mortgage payments and last month's electricity
	if err := h.putPayment(ctx, "mortgage-main", now.AddMonths(-2), engine.StatusPaid, 1350); err != nil {
		return err
	}
	if err := h.putPayment(ctx, "mortgage-main", now.AddMonths(-1), engine.StatusPaid, 1350); err != nil {
		return err
	}
	if err := h.putPayment(ctx, "utility-electric", now.AddMonths(-1), engine.StatusPaid, 123.40); err != nil {
		return err
	}

	o, err := h.Store.GetObligation(ctx, "mortgage-main")
	if err != nil {
		return err
	}
	return h.recomputeBalance(ctx, o)
}

func (h *Handler) loadMortgageOnlyScenario(ctx context.Context) error {
	if err := h.createObligationFromJSON(ctx,
		factory.ThirtyYearMortgageJSON("mortgage-main", "Home Mortgage", 255000, 4.1, 1350)); err != nil {
		return err
	}

	now := engine.PeriodOf(time.Now())
	for i := 3; i >= 1; i-- {
		if err := h.putPayment(ctx, "mortgage-main", now.AddMonths(-i), engine.StatusPaid, 1350); err != nil {
			return err
		}
	}

	// One lump-sum principal payment last month
	extra := engine.PaymentRecord{
		ObligationID: "mortgage-main",
		Period:       now.AddMonths(-1),
		Kind:         engine.PaymentExtra,
		Status:       engine.StatusExtra,
		Amount:       decimal.NewFromInt(5000),
		PaidAt:       now.AddMonths(-1).MonthStart(),
		Note:         "bonus towards principal",
	}
	if err := h.Store.PutPayment(ctx, extra); err != nil {
		return err
	}

	o, err := h.Store.GetObligation(ctx, "mortgage-main")
	if err != nil {
		return err
	}
	return h.recomputeBalance(ctx, o)
}

func (h *Handler) loadRateHikeScenario(ctx context.Context) error {
	if err := h.createObligationFromJSON(ctx,
		factory.ThirtyYearMortgageJSON("mortgage-main", "Home Mortgage", 310000, 1.9, 1180)); err != nil {
		return err
	}

	now := engine.PeriodOf(time.Now())
	if err := h.putRate(ctx, "mortgage-main", now.AddMonths(-8), 3.2, "first reset"); err != nil {
		return err
	}
	if err := h.putRate(ctx, "mortgage-main", now.AddMonths(-2), 4.6, "second reset"); err != nil {
		return err
	}

	return nil
}

func (h *Handler) loadPausedServicesScenario(ctx context.Context) error {
	now := engine.PeriodOf(time.Now())

	pauseFrom := now.Next()
	pauseTo := now.AddMonths(2)

	for i, name := range []string{"Streaming Service", "Gym Membership"} {
		id := fmt.Sprintf("sub-%02d", i+1)
		if err := h.createObligationFromJSON(ctx,
			factory.SubscriptionJSON(id, name, 29.99, 1)); err != nil {
			return err
		}

		o, err := h.Store.GetObligation(ctx, engine.ObligationID(id))
		if err != nil {
			return err
		}
		o.Pauses = []engine.PausePeriod{{From: pauseFrom, To: pauseTo, Note: "traveling"}}
		if err := h.Store.PutObligation(ctx, o); err != nil {
			return err
		}
	}

	// One utility keeps running through the pause window
	return h.createObligationFromJSON(ctx,
		factory.MonthlyUtilityJSON("utility-electric", "Electricity", 110, 80, 140))
}

// =============================================================================
// LOADER HELPERS
// =============================================================================

func (h *Handler) createObligationFromJSON(ctx context.Context, jsonStr string) error {
	o, err := h.Factory.ParseObligation(jsonStr)
	if err != nil {
		return err
	}
	return h.Store.PutObligation(ctx, o)
}

func (h *Handler) putRate(ctx context.Context, id engine.ObligationID, from engine.PeriodKey, rate float64, note string) error {
	r := decimal.NewFromFloat(rate)
	return h.Store.PutTerms(ctx, engine.TermsSnapshot{
		ObligationID: id,
		From:         from,
		InterestRate: &r,
		Note:         note,
	})
}

func (h *Handler) putPayment(ctx context.Context, id engine.ObligationID, period engine.PeriodKey, status engine.PaymentStatus, amount float64) error {
	return h.Store.PutPayment(ctx, engine.PaymentRecord{
		ObligationID: id,
		Period:       period,
		Kind:         engine.PaymentMain,
		Status:       status,
		Amount:       decimal.NewFromFloat(amount),
		PaidAt:       period.MonthStart(),
	})
}
