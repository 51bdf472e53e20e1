package service

import (
	"errors"
	"fmt"
)

var (
	ErrStoreNotFound    = errors.New("store not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrAlertNotFound    = errors.New("alert not found")
	ErrAlertResolved    = errors.New("alert is already resolved")
	ErrInvalidThreshold = errors.New("invalid threshold configuration")
)

// ValidationError rejects a malformed stock movement before it reaches the
// ledger. Field names the offending field, Rule the violated rule.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Rule)
}

func newValidationError(field, rule string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule}
}
