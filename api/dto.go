/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY AT THE BOUNDARY:
  Internal math runs on decimal.Decimal; DTOs carry float64. Every decimal
  crossing the boundary is already rounded to 2 places, so the conversion
  is exact for realistic magnitudes.

TYPES:
  Obligation:
    ObligationDTO (wraps factory.ObligationJSON)

  Terms / Payments:
    TermsSnapshotDTO, RecordPaymentRequest

  Plan / Simulation:
    PlanDTO, PlanRowDTO, SimulateRequest, SimulationDTO

  Forecast:
    ForecastDTO, ForecastRowDTO, ForecastCellDTO, UpcomingBillDTO

  Scenarios:
    DemoScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the factory, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/obligation.go: ObligationJSON type
*/
package api

import (
	"github.com/fintrack/obligation-engine/engine"
	"github.com/fintrack/obligation-engine/factory"
	"github.com/shopspring/decimal"
)

// =============================================================================
// OBLIGATION TYPES
// =============================================================================

// ObligationDTO represents an obligation in API responses.
type ObligationDTO struct {
	factory.ObligationJSON

	// Mortgage outlook figures computed on read; omitted elsewhere.
	EstMonthlyInterest *float64 `json:"est_monthly_interest,omitempty"`
	MonthsLeft         *int     `json:"months_left,omitempty"`
}

// =============================================================================
// TERMS TYPES
// =============================================================================

// TermsSnapshotDTO represents one terms override in API responses.
type TermsSnapshotDTO struct {
	ObligationID string `json:"obligation_id"`
	factory.TermsJSON
}

// =============================================================================
// PAYMENT TYPES
// =============================================================================

// RecordPaymentRequest is the request to record a payment.
type RecordPaymentRequest = factory.PaymentJSON

// PaymentDTO represents a payment record in API responses.
type PaymentDTO struct {
	ObligationID string  `json:"obligation_id"`
	Period       string  `json:"period"`
	Kind         string  `json:"kind"`
	Status       string  `json:"status"`
	Amount       float64 `json:"amount"`
	PaidAt       string  `json:"paid_at"`
	Note         string  `json:"note,omitempty"`
}

// =============================================================================
// PLAN TYPES
// =============================================================================

// PlanDTO is a full amortization schedule response.
type PlanDTO struct {
	ObligationID   string       `json:"obligation_id"`
	From           string       `json:"from"`
	Rows           []PlanRowDTO `json:"rows"`
	TotalInterest  float64      `json:"total_interest"`
	TotalFees      float64      `json:"total_fees"`
	TotalPrincipal float64      `json:"total_principal"`
	TotalPaid      float64      `json:"total_paid"`
	TotalExtra     float64      `json:"total_extra"`
	PayoffPeriod   *string      `json:"payoff_period,omitempty"`
	PayoffDate     *string      `json:"payoff_date,omitempty"`
	MonthsToPayoff *int         `json:"months_to_payoff,omitempty"`
}

// PlanRowDTO is one schedule period.
type PlanRowDTO struct {
	Period       string   `json:"period"`
	Days         int      `json:"days"`
	BalanceStart float64  `json:"balance_start"`
	Payment      float64  `json:"payment"`
	Fee          float64  `json:"fee"`
	Interest     float64  `json:"interest"`
	Principal    float64  `json:"principal"`
	Extra        float64  `json:"extra"`
	BalanceEnd   float64  `json:"balance_end"`
	Rate         float64  `json:"rate"`
	Recorded     bool     `json:"recorded"`
	Adjustments  []string `json:"adjustments,omitempty"`
}

// SimulateRequest is the request body for what-if simulation.
type SimulateRequest struct {
	From     string               `json:"from"`
	Months   int                  `json:"months"`
	Scenario factory.ScenarioJSON `json:"scenario"`
}

// SimulationDTO is a simulated schedule response.
type SimulationDTO struct {
	ObligationID   string       `json:"obligation_id"`
	From           string       `json:"from"`
	Rows           []PlanRowDTO `json:"rows"`
	TotalInterest  float64      `json:"total_interest"`
	TotalFees      float64      `json:"total_fees"`
	TotalPrincipal float64      `json:"total_principal"`
	TotalPaid      float64      `json:"total_paid"`
	PayoffPeriod   *string      `json:"payoff_period,omitempty"`
	PayoffDate     *string      `json:"payoff_date,omitempty"`
	MonthsToPayoff *int         `json:"months_to_payoff,omitempty"`
}

// =============================================================================
// FORECAST TYPES
// =============================================================================

// ForecastDTO is the dashboard grid response.
type ForecastDTO struct {
	Now          string            `json:"now"`
	Buckets      []string          `json:"buckets"`
	BucketTotals []BucketTotalDTO  `json:"bucket_totals"`
	Rows         []ForecastRowDTO  `json:"rows"`
	Sum3Min      float64           `json:"sum3_min"`
	Sum3Max      float64           `json:"sum3_max"`
	Sum3Paid     float64           `json:"sum3_paid"`
	NextBills    []UpcomingBillDTO `json:"next_bills"`
}

// BucketTotalDTO is the cross-obligation aggregate for one month bucket.
type BucketTotalDTO struct {
	Period      string  `json:"period"`
	ItemsCount  int     `json:"items_count"`
	ExpectedMin float64 `json:"expected_min"`
	ExpectedMax float64 `json:"expected_max"`
	Paid        float64 `json:"paid"`
}

// ForecastRowDTO is one obligation across the grid.
type ForecastRowDTO struct {
	ObligationID string            `json:"obligation_id"`
	Name         string            `json:"name"`
	Kind         string            `json:"kind"`
	DueDay       int               `json:"due_day"`
	Cells        []ForecastCellDTO `json:"cells"`

	Balance             *float64 `json:"balance,omitempty"`
	EstMonthlyInterest  *float64 `json:"est_monthly_interest,omitempty"`
	EstMonthlyPrincipal *float64 `json:"est_monthly_principal,omitempty"`
	MonthsLeft          *int     `json:"months_left,omitempty"`
}

// ForecastCellDTO is one obligation-month intersection.
type ForecastCellDTO struct {
	Period      string   `json:"period"`
	Status      string   `json:"status"`
	ExpectedMin float64  `json:"expected_min"`
	ExpectedMax float64  `json:"expected_max"`
	Paid        float64  `json:"paid,omitempty"`
	Extra       float64  `json:"extra,omitempty"`
	PauseNote   string   `json:"pause_note,omitempty"`
	BalanceEnd  *float64 `json:"balance_end,omitempty"`
}

// UpcomingBillDTO is one next-bills entry.
type UpcomingBillDTO struct {
	ObligationID string  `json:"obligation_id"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Period       string  `json:"period"`
	DueDate      string  `json:"due_date"`
	AmountMin    float64 `json:"amount_min"`
	AmountMax    float64 `json:"amount_max"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// DemoScenarioDTO describes an available demo scenario.
type DemoScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

func toFloatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := toFloat(*d)
	return &v
}

func toPaymentDTO(p engine.PaymentRecord) PaymentDTO {
	return PaymentDTO{
		ObligationID: string(p.ObligationID),
		Period:       p.Period.String(),
		Kind:         string(p.Kind),
		Status:       string(p.Status),
		Amount:       toFloat(p.Amount),
		PaidAt:       p.PaidAt.Format("2006-01-02"),
		Note:         p.Note,
	}
}

func toPlanDTO(plan *engine.Plan) PlanDTO {
	dto := PlanDTO{
		ObligationID:   string(plan.ObligationID),
		From:           plan.From.String(),
		Rows:           make([]PlanRowDTO, 0, len(plan.Rows)),
		TotalInterest:  toFloat(plan.TotalInterest),
		TotalFees:      toFloat(plan.TotalFees),
		TotalPrincipal: toFloat(plan.TotalPrincipal),
		TotalPaid:      toFloat(plan.TotalPaid),
		TotalExtra:     toFloat(plan.TotalExtra),
		MonthsToPayoff: plan.MonthsToPayoff,
	}
	if plan.PayoffPeriod != nil {
		s := plan.PayoffPeriod.String()
		dto.PayoffPeriod = &s
	}
	if plan.PayoffDate != nil {
		s := plan.PayoffDate.Format("2006-01-02")
		dto.PayoffDate = &s
	}
	for _, row := range plan.Rows {
		r := toPlanRowDTO(row.PeriodResult, row.Rate)
		r.Recorded = row.Recorded
		dto.Rows = append(dto.Rows, r)
	}
	return dto
}

func toSimulationDTO(sim *engine.Simulation) SimulationDTO {
	dto := SimulationDTO{
		ObligationID:   string(sim.ObligationID),
		From:           sim.From.String(),
		Rows:           make([]PlanRowDTO, 0, len(sim.Rows)),
		TotalInterest:  toFloat(sim.TotalInterest),
		TotalFees:      toFloat(sim.TotalFees),
		TotalPrincipal: toFloat(sim.TotalPrincipal),
		TotalPaid:      toFloat(sim.TotalPaid),
		MonthsToPayoff: sim.MonthsToPayoff,
	}
	if sim.PayoffPeriod != nil {
		s := sim.PayoffPeriod.String()
		dto.PayoffPeriod = &s
	}
	if sim.PayoffDate != nil {
		s := sim.PayoffDate.Format("2006-01-02")
		dto.PayoffDate = &s
	}
	for _, row := range sim.Rows {
		r := toPlanRowDTO(row.PeriodResult, row.Rate)
		r.Adjustments = row.Adjustments
		dto.Rows = append(dto.Rows, r)
	}
	return dto
}

func toPlanRowDTO(res engine.PeriodResult, rate decimal.Decimal) PlanRowDTO {
	return PlanRowDTO{
		Period:       res.Period.String(),
		Days:         res.Days,
		BalanceStart: toFloat(res.BalanceStart),
		Payment:      toFloat(res.Payment),
		Fee:          toFloat(res.Fee),
		Interest:     toFloat(res.Interest),
		Principal:    toFloat(res.Principal),
		Extra:        toFloat(res.Extra),
		BalanceEnd:   toFloat(res.BalanceEnd),
		Rate:         toFloat(rate),
	}
}

func toForecastDTO(f *engine.Forecast) ForecastDTO {
	dto := ForecastDTO{
		Now:          f.Now.Format("2006-01-02"),
		Buckets:      make([]string, 0, len(f.Buckets)),
		BucketTotals: make([]BucketTotalDTO, 0, len(f.BucketTotals)),
		Rows:         make([]ForecastRowDTO, 0, len(f.Rows)),
		Sum3Min:      toFloat(f.Sum3Min),
		Sum3Max:      toFloat(f.Sum3Max),
		Sum3Paid:     toFloat(f.Sum3Paid),
		NextBills:    make([]UpcomingBillDTO, 0, len(f.NextBills)),
	}
	for _, b := range f.Buckets {
		dto.Buckets = append(dto.Buckets, b.String())
	}
	for _, bt := range f.BucketTotals {
		dto.BucketTotals = append(dto.BucketTotals, BucketTotalDTO{
			Period:      bt.Period.String(),
			ItemsCount:  bt.ItemsCount,
			ExpectedMin: toFloat(bt.ExpectedMin),
			ExpectedMax: toFloat(bt.ExpectedMax),
			Paid:        toFloat(bt.Paid),
		})
	}
	for _, row := range f.Rows {
		r := ForecastRowDTO{
			ObligationID: string(row.ObligationID),
			Name:         row.Name,
			Kind:         string(row.Kind),
			DueDay:       row.DueDay,
			Cells:        make([]ForecastCellDTO, 0, len(row.Cells)),
		}
		if row.Mortgage != nil {
			balance := toFloat(row.Mortgage.Balance)
			estInterest := toFloat(row.Mortgage.EstMonthlyInterest)
			estPrincipal := toFloat(row.Mortgage.EstMonthlyPrincipal)
			r.Balance = &balance
			r.EstMonthlyInterest = &estInterest
			r.EstMonthlyPrincipal = &estPrincipal
			r.MonthsLeft = row.Mortgage.MonthsLeft
		}
		for _, cell := range row.Cells {
			r.Cells = append(r.Cells, ForecastCellDTO{
				Period:      cell.Period.String(),
				Status:      string(cell.Status),
				ExpectedMin: toFloat(cell.ExpectedMin),
				ExpectedMax: toFloat(cell.ExpectedMax),
				Paid:        toFloat(cell.Paid),
				Extra:       toFloat(cell.Extra),
				PauseNote:   cell.PauseNote,
				BalanceEnd:  toFloatPtr(cell.BalanceEnd),
			})
		}
		dto.Rows = append(dto.Rows, r)
	}
	for _, bill := range f.NextBills {
		dto.NextBills = append(dto.NextBills, UpcomingBillDTO{
			ObligationID: string(bill.ObligationID),
			Name:         bill.Name,
			Kind:         string(bill.Kind),
			Period:       bill.Period.String(),
			DueDate:      bill.DueDate.Format("2006-01-02"),
			AmountMin:    toFloat(bill.AmountMin),
			AmountMax:    toFloat(bill.AmountMax),
		})
	}
	return dto
}
