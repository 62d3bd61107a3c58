/*
Preset obligation definitions.

These functions build JSON obligation definitions for the common household
cases. They construct JSON strings directly so callers and demo loaders
can feed them straight through ParseObligation.

USAGE:
  factory := NewObligationFactory()
  jsonStr := ThirtyYearMortgageJSON("mortgage-main", "Home Loan", 300000, 4.1, 1450)
  obligation, err := factory.ParseObligation(jsonStr)
*/
package factory

import (
	"encoding/json"
)

// ThirtyYearMortgageJSON returns JSON for a monthly mortgage due on the 15th.
func ThirtyYearMortgageJSON(id, name string, balance, rate, payment float64) string {
	oj := map[string]interface{}{
		"id":                id,
		"name":              name,
		"kind":              "MORTGAGE",
		"due_day":           15,
		"interval_months":   1,
		"amount":            payment,
		"interest_rate":     rate,
		"remaining_balance": balance,
		"initial_balance":   balance,
		"mortgage_kind":     "ANNUITY",
	}
	b, _ := json.MarshalIndent(oj, "", "  ")
	return string(b)
}

// MonthlyUtilityJSON returns JSON for a monthly utility with an estimate
// range around its typical amount.
func MonthlyUtilityJSON(id, name string, typical, min, max float64) string {
	oj := map[string]interface{}{
		"id":              id,
		"name":            name,
		"kind":            "UTILITY",
		"due_day":         25,
		"interval_months": 1,
		"amount":          typical,
		"estimate_min":    min,
		"estimate_max":    max,
	}
	b, _ := json.MarshalIndent(oj, "", "  ")
	return string(b)
}

// QuarterlyInsuranceJSON returns JSON for an insurance premium billed
// every third month from the anchor month.
func QuarterlyInsuranceJSON(id, name string, premium float64, startMonth int) string {
	oj := map[string]interface{}{
		"id":              id,
		"name":            name,
		"kind":            "INSURANCE",
		"due_day":         5,
		"interval_months": 3,
		"start_month":     startMonth,
		"amount":          premium,
	}
	b, _ := json.MarshalIndent(oj, "", "  ")
	return string(b)
}

// SubscriptionJSON returns JSON for a fixed monthly subscription.
func SubscriptionJSON(id, name string, monthly float64, dueDay int) string {
	oj := map[string]interface{}{
		"id":              id,
		"name":            name,
		"kind":            "SUBSCRIPTION",
		"due_day":         dueDay,
		"interval_months": 1,
		"amount":          monthly,
	}
	b, _ := json.MarshalIndent(oj, "", "  ")
	return string(b)
}
