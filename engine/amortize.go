/*
Single-period mortgage amortization.

PURPOSE:
  Split one billing period's payment into interest, fee and principal, and
  advance the balance. This is the only place the interest day-count math
  lives; plan, simulate and forecast all feed through here.

THE MATH (fixed 365-day basis, actual calendar days):
    interest  = round2(balance * rate/100 * days/365)
    principal = round2(max(0, payment - fee - interest) + extra)
    balance'  = round2(max(0, balance - principal))

  A payment smaller than fee+interest still reduces nothing but is never
  negative principal; extra payments are pure principal on top.

SEE ALSO:
  - period.go: PeriodDays supplies the day count
  - plan.go: walks periods with recorded payments
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// PERIOD RESULT
// =============================================================================

// PeriodResult is one amortized billing period.
type PeriodResult struct {
	Period       PeriodKey
	Days         int
	BalanceStart decimal.Decimal
	Payment      decimal.Decimal
	Fee          decimal.Decimal
	Interest     decimal.Decimal
	Principal    decimal.Decimal
	Extra        decimal.Decimal
	BalanceEnd   decimal.Decimal
}

// =============================================================================
// AMORTIZATION
// =============================================================================

// AmortizePeriod computes one billing period. payment is the full amount
// handed over (fee included); extra is additional pure-principal payment.
func AmortizePeriod(period PeriodKey, dueDay int, balance, rate, payment, fee, extra decimal.Decimal) PeriodResult {
	days := PeriodDays(period, dueDay)

	interest := round2(balance.
		Mul(rate).Div(dec100).
		Mul(decimal.NewFromInt(int64(days))).Div(dec365))

	principal := round2(maxZero(payment.Sub(fee).Sub(interest)).Add(extra))
	end := round2(maxZero(balance.Sub(principal)))

	return PeriodResult{
		Period:       period,
		Days:         days,
		BalanceStart: balance,
		Payment:      payment,
		Fee:          fee,
		Interest:     interest,
		Principal:    principal,
		Extra:        extra,
		BalanceEnd:   end,
	}
}

// FlatMonthlyInterest is the quick rate/12 estimate used on forecast rows:
// round2(balance * rate / 1200). It deliberately ignores day counts, so it
// diverges slightly from the schedule's accrual.
func FlatMonthlyInterest(balance, rate decimal.Decimal) decimal.Decimal {
	return round2(balance.Mul(rate).Div(dec1200))
}

// FlatMonthlyPrincipal is the companion estimate: what one flat-rate month
// of the current payment puts toward principal, floored at zero when the
// payment does not cover fee plus interest.
func FlatMonthlyPrincipal(balance, rate, payment, fee decimal.Decimal) decimal.Decimal {
	return round2(maxZero(payment.Sub(fee).Sub(FlatMonthlyInterest(balance, rate))))
}

// MonthsToPayoff estimates how many flat-rate months remain until the
// balance reaches zero at the given payment. Returns (0, false) when the
// payment never outruns interest plus fee; the walk is capped at 100 years
// as a divergence guard.
func MonthsToPayoff(balance, rate, payment, fee decimal.Decimal) (int, bool) {
	if !balance.IsPositive() {
		return 0, true
	}
	toward := payment.Sub(fee)
	if !toward.IsPositive() {
		return 0, false
	}
	months := 0
	for balance.IsPositive() {
		months++
		if months > 1200 {
			return 0, false
		}
		interest := FlatMonthlyInterest(balance, rate)
		principal := toward.Sub(interest)
		if !principal.IsPositive() {
			return 0, false
		}
		balance = round2(maxZero(balance.Sub(principal)))
	}
	return months, true
}
