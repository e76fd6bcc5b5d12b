package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTradeNotFound is returned when a simulated trade does not exist for the user
	ErrTradeNotFound = errors.New("simulated trade not found")

	// ErrTradeAlreadyClosed is returned when closing a trade that is no longer active
	ErrTradeAlreadyClosed = errors.New("simulated trade already closed")

	// ErrDuplicateRequest is returned by stores when a request id was already used
	ErrDuplicateRequest = errors.New("duplicate order request id")

	// ErrInvalidOrder is returned when an order request is malformed
	ErrInvalidOrder = errors.New("invalid order")
)

// InsufficientDataError means too few bars were supplied for the requested window.
// Callers should skip the cycle rather than surface it to users.
type InsufficientDataError struct {
	Required int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient market data: need %d bars, got %d", e.Required, e.Got)
}

// SimulationSubmissionError wraps a persistence failure during order submission
type SimulationSubmissionError struct {
	Cause error
}

func (e *SimulationSubmissionError) Error() string {
	return fmt.Sprintf("failed to submit simulated order: %v", e.Cause)
}

func (e *SimulationSubmissionError) Unwrap() error {
	return e.Cause
}

// InvalidSettingsError rejects a malformed RiskSettings payload
type InvalidSettingsError struct {
	Field  string
	Reason string
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid risk settings: %s %s", e.Field, e.Reason)
}
