/*
errors.go - Centralized error types

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Ledger errors - Entry persistence failures
  2. Input errors - Malformed roster matrices, unsupported uploads
  3. Lookup errors - Missing runs, unreachable catalog sources

Advisories (unknown shift code, same-ward redeployment, unresolvable HO
base) are NOT errors. They are logged and recorded as anomalies; only a
malformed roster aborts anything, and then only the affected ward.

SEE ALSO:
  - roster/matrix.go: Produces MalformedRosterError
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateIdempotencyKey is returned when an entry with the same
	// idempotency key already exists, e.g. committing a run twice.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrMalformedRoster is the root of every roster shape failure.
	ErrMalformedRoster = errors.New("malformed roster matrix")

	// ErrNoDataRows is returned when the roster has a header but no staff rows.
	ErrNoDataRows = errors.New("roster has no data rows")

	// ErrNoDateColumns is returned when no header cell parses as a date.
	ErrNoDateColumns = errors.New("roster has no parseable date columns")

	// ErrUnsupportedFormat is returned for uploads that are neither xlsx nor csv.
	ErrUnsupportedFormat = errors.New("unsupported roster format")

	// ErrRunNotFound is returned when a referenced run doesn't exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrSourceUnavailable marks a catalog source that could not be read.
	// The resolver treats it exactly like an empty source.
	ErrSourceUnavailable = errors.New("catalog source unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MalformedRosterError describes why a ward could not be processed.
type MalformedRosterError struct {
	Ward   string
	Reason string
	Err    error
}

func (e *MalformedRosterError) Error() string {
	if e.Ward == "" {
		return fmt.Sprintf("malformed roster: %s", e.Reason)
	}
	return fmt.Sprintf("malformed roster for ward %s: %s", e.Ward, e.Reason)
}

// Unwrap exposes both the specific cause and ErrMalformedRoster.
func (e *MalformedRosterError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRoster}
	}
	return []error{e.Err, ErrMalformedRoster}
}

// SourceError wraps a failed catalog source read.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("catalog source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{e.Err, ErrSourceUnavailable}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedRoster) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}
