package lifecycle

import (
	"errors"
	"fmt"
)

// Stable error codes carried to API clients in structured error bodies.
const (
	CodeValidation          = "VALIDATION"
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicateSuppressed = "DUPLICATE_SUPPRESSED"
	CodePersistence         = "PERSISTENCE"
	CodeConnectivity        = "CONNECTIVITY"
	CodeInternal            = "INTERNAL"
)

// ValidationError reports malformed or incomplete input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a lookup for an alert id that does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("alert not found: %s", e.ID)
}

// DuplicateSuppressedError signals that creation was suppressed because a
// dedup marker for the same alert identity is still live. It is control flow,
// not a failure: callers on the ingest path log it at debug and move on.
type DuplicateSuppressedError struct {
	Type    string
	Region  string
	MeterID string
}

func (e *DuplicateSuppressedError) Error() string {
	return fmt.Sprintf("duplicate alert suppressed: type=%s region=%s meter=%s", e.Type, e.Region, e.MeterID)
}

// PersistenceError wraps a failure of the alert store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConnectivityError wraps an unreachable external dependency.
type ConnectivityError struct {
	Target string
	Err    error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Target, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ErrorCode maps a domain error to its stable code. Unknown errors map to
// CodeInternal.
func ErrorCode(err error) string {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		duplicate  *DuplicateSuppressedError
		persist    *PersistenceError
		connect    *ConnectivityError
	)
	switch {
	case errors.As(err, &validation):
		return CodeValidation
	case errors.As(err, &notFound):
		return CodeNotFound
	case errors.As(err, &duplicate):
		return CodeDuplicateSuppressed
	case errors.As(err, &persist):
		return CodePersistence
	case errors.As(err, &connect):
		return CodeConnectivity
	default:
		return CodeInternal
	}
}
