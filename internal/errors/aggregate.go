package errors

import (
	"fmt"
	"strings"
)

// AggregateError wraps every error collected across one index assembly.
// Per-file and per-conflict errors never abort the batch individually; the
// assembly step gathers them and surfaces them together through this type.
type AggregateError struct {
	// Errs are the collected errors in discovery order.
	Errs []error
}

// NewAggregate creates an AggregateError from the collected errors.
// Returns nil when errs is empty so callers can return the result directly.
func NewAggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errs: errs}
}

// Error implements the error interface, listing every wrapped error.
func (e *AggregateError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("[%s] indexing failed: %v", ErrCodeAggregate, e.Errs[0])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] indexing failed with %d errors:", ErrCodeAggregate, len(e.Errs))
	for _, err := range e.Errs {
		fmt.Fprintf(&b, "\n  %v", err)
	}
	return b.String()
}

// Unwrap returns the wrapped errors so errors.Is / errors.As traverse them.
func (e *AggregateError) Unwrap() []error {
	return e.Errs
}
