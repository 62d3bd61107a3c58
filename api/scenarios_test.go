/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	obligations created, terms recorded, payments in place, and
	mortgage balances replayed where the scenario calls for it.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/fintrack/obligation-engine/engine"
)

func loadScenario(t *testing.T, h *Handler, id string) {
	t.Helper()

	rec := doRequest(t, h, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	if rec.Code != http.StatusOK {
		t.Fatalf("Failed to load scenario %s: %d %s", id, rec.Code, rec.Body.String())
	}
}

func TestListScenarios(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/scenarios", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var dtos []DemoScenarioDTO
	decodeBody(t, rec, &dtos)
	if len(dtos) != 4 {
		t.Errorf("Expected 4 scenarios, got %d", len(dtos))
	}
}

func TestLoadScenario_Unknown(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown scenario, got %d", rec.Code)
	}
}

func TestLoadScenario_Household(t *testing.T) {
	// GIVEN/WHEN: The household scenario
	h := newTestHandler(t)
	loadScenario(t, h, "household")

	ctx := context.Background()

	// THEN: Four obligations exist
	obligations, err := h.Store.ListObligations(ctx)
	if err != nil {
		t.Fatalf("Failed to list obligations: %v", err)
	}
	if len(obligations) != 4 {
		t.Fatalf("Expected 4 obligations, got %d", len(obligations))
	}

	// The mortgage carries a rate-change snapshot
	history, err := h.Store.ListTerms(ctx, "mortgage-main")
	if err != nil {
		t.Fatalf("Failed to list terms: %v", err)
	}
	if len(history) != 1 || history[0].InterestRate == nil {
		t.Errorf("Expected one rate snapshot, got %+v", history)
	}

	// Recent payments are recorded
	payments, err := h.Store.ListPayments(ctx, "mortgage-main")
	if err != nil {
		t.Fatalf("Failed to list payments: %v", err)
	}
	if len(payments) != 2 {
		t.Errorf("Expected 2 mortgage payments, got %d", len(payments))
	}

	// The current scenario endpoint reflects the load
	rec := doRequest(t, h, http.MethodGet, "/api/scenarios/current", nil)
	var current DemoScenarioDTO
	decodeBody(t, rec, &current)
	if current.ID != "household" {
		t.Errorf("Expected current scenario household, got %s", current.ID)
	}
}

func TestLoadScenario_MortgageOnly_ReplaysBalance(t *testing.T) {
	// GIVEN/WHEN: Three paid months plus a lump-sum extra
	h := newTestHandler(t)
	loadScenario(t, h, "mortgage-only")

	ctx := context.Background()
	o, err := h.Store.GetObligation(ctx, "mortgage-main")
	if err != nil {
		t.Fatalf("Failed to get mortgage: %v", err)
	}

	// THEN: The remaining balance was replayed below its initial value
	if !o.RemainingBalance.LessThan(o.InitialBalance) {
		t.Errorf("Expected replayed balance below initial, got %s vs %s",
			o.RemainingBalance, o.InitialBalance)
	}

	payments, err := h.Store.ListPayments(ctx, "mortgage-main")
	if err != nil {
		t.Fatalf("Failed to list payments: %v", err)
	}
	extras := 0
	for _, p := range payments {
		if p.Kind == engine.PaymentExtra {
			extras++
		}
	}
	if extras != 1 {
		t.Errorf("Expected 1 extra payment, got %d", extras)
	}
}

func TestLoadScenario_RateHike_TermsOrdered(t *testing.T) {
	h := newTestHandler(t)
	loadScenario(t, h, "rate-hike")

	history, err := h.Store.ListTerms(context.Background(), "mortgage-main")
	if err != nil {
		t.Fatalf("Failed to list terms: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 rate snapshots, got %d", len(history))
	}
	if !history[0].From.Before(history[1].From) {
		t.Errorf("History not ordered: %s, %s", history[0].From, history[1].From)
	}
	if history[0].InterestRate.GreaterThanOrEqual(*history[1].InterestRate) {
		t.Errorf("Expected rising rates, got %s then %s",
			history[0].InterestRate, history[1].InterestRate)
	}
}

func TestLoadScenario_PausedServices(t *testing.T) {
	h := newTestHandler(t)
	loadScenario(t, h, "paused-services")

	ctx := context.Background()
	obligations, err := h.Store.ListObligations(ctx)
	if err != nil {
		t.Fatalf("Failed to list obligations: %v", err)
	}

	paused := 0
	for _, o := range obligations {
		if len(o.Pauses) > 0 {
			paused++
			if o.Pauses[0].Note != "traveling" {
				t.Errorf("Expected pause note traveling, got %q", o.Pauses[0].Note)
			}
		}
	}
	if paused != 2 {
		t.Errorf("Expected 2 paused subscriptions, got %d", paused)
	}
}

func TestResetDatabase(t *testing.T) {
	// GIVEN: A loaded scenario
	h := newTestHandler(t)
	loadScenario(t, h, "household")

	// WHEN: Resetting
	rec := doRequest(t, h, http.MethodPost, "/api/scenarios/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	// THEN: Everything is gone, current scenario cleared
	obligations, err := h.Store.ListObligations(context.Background())
	if err != nil {
		t.Fatalf("Failed to list obligations: %v", err)
	}
	if len(obligations) != 0 {
		t.Errorf("Expected empty store, got %d obligations", len(obligations))
	}

	rec = doRequest(t, h, http.MethodGet, "/api/scenarios/current", nil)
	if body := rec.Body.String(); body != "null\n" {
		t.Errorf("Expected null current scenario, got %q", body)
	}
}
