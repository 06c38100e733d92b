package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors of the evaluation pipeline. Every one of these is
// recoverable: the loop logs it, persists a record with the error
// populated and moves on to the next cycle.
var (
	// ErrDataUnavailable means an upstream fetch failed; retry next cycle.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrInsufficientData means the candle window is shorter than the
	// indicator needs.
	ErrInsufficientData = errors.New("insufficient candle data")

	// ErrInsufficientCalibrationData means one imbalance sign has no
	// historical observations, so a threshold mean is undefined.
	ErrInsufficientCalibrationData = errors.New("insufficient calibration data")

	// ErrMissingDepthData means no depth snapshot was supplied at all
	// (an empty book is a defined degenerate case, not this error).
	ErrMissingDepthData = errors.New("missing order book depth")

	// ErrDuplicatePositionBlocked means open or active orders already
	// exist for the instrument; nothing was submitted.
	ErrDuplicatePositionBlocked = errors.New("open orders exist, bracket blocked")

	// ErrInvalidPrecision means the price precision was not positive
	// even after falling back to the configured default.
	ErrInvalidPrecision = errors.New("invalid price precision")
)

// ExchangeError is a rejection returned by the exchange itself, as
// opposed to a transport failure.
type ExchangeError struct {
	Code    string
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange rejected request: %s (%s)", e.Message, e.Code)
}

// NetworkError is a transport-level failure talking to the exchange.
// Transient: no in-cycle retry, the next cycle tries again.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PartialBracketFailure reports a bracket where at least one leg failed
// while others may have been accepted, so a supervisor can reconcile
// orphaned legs manually.
type PartialBracketFailure struct {
	Report *BracketReport
}

func (e *PartialBracketFailure) Error() string {
	failed := make([]string, 0, 3)
	for _, l := range e.Report.Failed() {
		failed = append(failed, string(l.Leg))
	}
	return fmt.Sprintf("bracket partially failed: %d/%d legs rejected (%s)",
		len(failed), len(e.Report.Legs), strings.Join(failed, ", "))
}
