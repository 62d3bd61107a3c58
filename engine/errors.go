/*
Engine error taxonomy.

PURPOSE:
  Sentinel errors for invalid inputs plus a structured error type carrying
  the obligation and period context a caller needs to map failures onto
  HTTP responses or log lines.

ERROR PHILOSOPHY:
  - Absent data (no terms history, no payments, no pauses) is a default,
    never an error. Errors are reserved for malformed input and for
    operations on the wrong kind of obligation.
  - Sentinels support errors.Is; EngineError adds context and supports
    errors.Unwrap.

SEE ALSO:
  - api/handlers.go: maps IsClientError onto 400 responses
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrInvalidPeriod indicates a malformed YYYY-MM period key.
	ErrInvalidPeriod = errors.New("invalid period key")

	// ErrInvalidHorizon indicates a horizon outside the accepted range.
	ErrInvalidHorizon = errors.New("invalid horizon")

	// ErrNotMortgage indicates an amortization operation was requested for
	// an obligation that is not a mortgage.
	ErrNotMortgage = errors.New("obligation is not a mortgage")

	// ErrNotFound indicates a referenced obligation does not exist.
	ErrNotFound = errors.New("obligation not found")

	// ErrInvalidScenario indicates a malformed simulation scenario.
	ErrInvalidScenario = errors.New("invalid scenario")
)

// =============================================================================
// STRUCTURED ERROR
// =============================================================================

// EngineError wraps a sentinel with the obligation and period it concerns.
type EngineError struct {
	Op           string
	ObligationID ObligationID
	Period       PeriodKey
	Err          error
}

func (e *EngineError) Error() string {
	msg := e.Op
	if e.ObligationID != "" {
		msg += fmt.Sprintf(" obligation=%s", e.ObligationID)
	}
	if e.Period != "" {
		msg += fmt.Sprintf(" period=%s", e.Period)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

func engineErr(op string, id ObligationID, period PeriodKey, err error) error {
	return &EngineError{Op: op, ObligationID: id, Period: period, Err: err}
}

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsClientError reports whether err stems from bad caller input rather than
// an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidHorizon) ||
		errors.Is(err, ErrNotMortgage) ||
		errors.Is(err, ErrInvalidScenario)
}

// IsNotFound reports whether err indicates a missing obligation.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
