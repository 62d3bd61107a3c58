/*
Effective-terms resolution.

PURPOSE:
  An obligation's financial terms (amount, estimates, interest rate,
  monthly fee) can be overridden from a given month onward by terms
  snapshots. This file resolves which snapshot governs a month and merges
  its non-nil fields over the obligation's base values.

RESOLUTION RULE:
  For month M, the governing snapshot is the latest one with From <= M.
  Merging is field-by-field: each nil field falls through to the base.
  No snapshot at or before M means pure base terms; this is the default,
  not an error.

SEE ALSO:
  - types.go: TermsSnapshot, EffectiveTerms
  - plan.go, forecast.go: call ResolveTerms once per month
*/
package engine

import "sort"

// =============================================================================
// RESOLUTION
// =============================================================================

// ResolveTerms merges the snapshot in effect for month over the obligation's
// base terms. History may arrive in any order; resolution scans for the
// latest From <= month.
func ResolveTerms(o Obligation, history []TermsSnapshot, month PeriodKey) EffectiveTerms {
	terms := EffectiveTerms{
		Amount:        o.Amount,
		EstimateMin:   o.EstimateMin,
		EstimateMax:   o.EstimateMax,
		InterestRate:  o.InterestRate,
		HasMonthlyFee: o.HasMonthlyFee,
		MonthlyFee:    o.MonthlyFee,
	}

	var best *TermsSnapshot
	for i := range history {
		s := &history[i]
		if s.ObligationID != o.ID {
			continue
		}
		if month.Before(s.From) {
			continue
		}
		if best == nil || best.From.Before(s.From) {
			best = s
		}
	}
	if best == nil {
		return terms
	}

	if best.Amount != nil {
		terms.Amount = *best.Amount
	}
	if best.EstimateMin != nil {
		terms.EstimateMin = *best.EstimateMin
	}
	if best.EstimateMax != nil {
		terms.EstimateMax = *best.EstimateMax
	}
	if best.InterestRate != nil {
		terms.InterestRate = *best.InterestRate
	}
	if best.HasMonthlyFee != nil {
		terms.HasMonthlyFee = *best.HasMonthlyFee
	}
	if best.MonthlyFee != nil {
		terms.MonthlyFee = *best.MonthlyFee
	}
	return terms
}

// SortTermsHistory orders snapshots chronologically in place. The resolver
// does not require sorted input, but display layers do.
func SortTermsHistory(history []TermsSnapshot) {
	sort.Slice(history, func(i, j int) bool {
		return history[i].From.Before(history[j].From)
	})
}
