package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data shape errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrNoObservations   = errors.New("no observations supplied")

	// Option errors
	ErrInvalidOptions    = errors.New("invalid analysis options")
	ErrUnknownTransform  = fmt.Errorf("%w: unknown transform", ErrInvalidOptions)
	ErrUnknownAdjustment = fmt.Errorf("%w: unknown p-value adjustment method", ErrInvalidOptions)
)

// NewValidationError creates an option-validation error with field context
func NewValidationError(field, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidOptions, field, detail)
}
