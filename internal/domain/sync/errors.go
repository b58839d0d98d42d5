package sync

import (
	"errors"
	"fmt"
)

var (
	// Receiver errors
	ErrInvalidSecret   = errors.New("sync: webhook secret does not match any configured tenant")
	ErrInvalidEnvelope = errors.New("sync: payload does not match a known envelope shape")
	ErrTenantNotBacked = errors.New("sync: tenant is not CRM-backed")

	// Upsert errors
	ErrUnknownStatusCode = errors.New("sync: unknown CRM order status code")
	ErrOrderNotFound     = errors.New("sync: no local order matches the external order ID")
	ErrEntityLocked      = errors.New("sync: entity is being modified by another event")

	// Downstream errors
	ErrCRMUnavailable     = errors.New("sync: CRM temporarily unavailable")
	ErrCRMRequestFailed   = errors.New("sync: CRM request failed")
	ErrReindexUnavailable = errors.New("sync: reindex worker unavailable")
	ErrReindexFailed      = errors.New("sync: reindex request failed")
)

// ParseError reports a CRM field value that could not be normalized.
// It is fatal for the event that carried it and maps to a semantic
// rejection at the webhook boundary.
type ParseError struct {
	Field string
	Input string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("sync: cannot parse field %q from %q", e.Field, e.Input)
}

// NewParseError creates a parse error for a field and its raw input
func NewParseError(field, input string) *ParseError {
	return &ParseError{Field: field, Input: input}
}

// IsParseError reports whether err is (or wraps) a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
