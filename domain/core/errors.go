package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Panel validation errors
	ErrNotBinary        = errors.New("outcome is not binary")
	ErrSingleLevel      = errors.New("outcome has a single level")
	ErrTooFewWaves      = errors.New("fewer than two distinct time points")
	ErrDuplicateRecord  = errors.New("duplicate unit/time record")
	ErrEmptyPanel       = errors.New("panel has no complete records")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrUnknownColumn    = errors.New("column not found")
	ErrUnparseableValue = errors.New("value cannot be parsed")

	// Search configuration errors
	ErrStepOrder        = errors.New("simulation steps are not strictly increasing")
	ErrReliabilityRange = errors.New("reliability outside [0,1]")
	ErrUnknownPattern   = errors.New("unknown pattern mode")

	// Simulation errors
	ErrDegenerateDraw    = errors.New("simulated outcome is degenerate")
	ErrSignatureMismatch = errors.New("signature kinds do not match")
)

// NewValidationError reports a field-level problem
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// IsPanelError reports whether err stems from an invalid input panel
func IsPanelError(err error) bool {
	return errors.Is(err, ErrNotBinary) ||
		errors.Is(err, ErrSingleLevel) ||
		errors.Is(err, ErrTooFewWaves) ||
		errors.Is(err, ErrDuplicateRecord) ||
		errors.Is(err, ErrEmptyPanel)
}

// IsSearchConfigError reports whether err stems from invalid search settings
func IsSearchConfigError(err error) bool {
	return errors.Is(err, ErrStepOrder) ||
		errors.Is(err, ErrReliabilityRange) ||
		errors.Is(err, ErrUnknownPattern)
}
