// Package errors defines the domain error vocabulary for the compliance core.
//
// Every core operation either fully succeeds or fails with one of these
// codes and no partial state change. Stores and services return Error values
// (optionally wrapped); transport layers translate codes to HTTP statuses via
// ToHTTPStatus. Retry policy belongs to the caller - nothing here is retried
// internally.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure kind independent of its human-readable message.
type Code string

const (
	// CodeNotFound: lookup by id found nothing.
	CodeNotFound Code = "not_found"
	// CodeOrphanReference: a create referenced a nonexistent parent id.
	CodeOrphanReference Code = "orphan_reference"
	// CodeDuplicate: a create reused an explicitly supplied id.
	CodeDuplicate Code = "duplicate"
	// CodeInvalidTransition: requested state is not a legal successor.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeInvalidState: operation precondition state not met.
	CodeInvalidState Code = "invalid_state"
	// CodeEscalationRequired: revision-cycle cap exceeded; needs a human.
	CodeEscalationRequired Code = "escalation_required"
	// CodeMalformedInput: structurally invalid input (bad enum, negative area).
	CodeMalformedInput Code = "malformed_input"
	// CodeInternal: unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is the code-carrying error returned across the core's call surface.
type Error struct {
	Code    Code
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error with the given code and message.
func New(code Code, message string) Error {
	return Error{Code: code, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(code Code, format string, args ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code from err, unwrapping as needed. Non-domain errors
// report CodeInternal so callers never branch on an unknown kind.
func CodeOf(err error) Code {
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// ToHTTPStatus maps a domain code to the status the HTTP collaborator should
// emit. The core itself never writes HTTP responses.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeOrphanReference:
		return http.StatusUnprocessableEntity
	case CodeDuplicate:
		return http.StatusConflict
	case CodeInvalidTransition, CodeInvalidState:
		return http.StatusConflict
	case CodeEscalationRequired:
		return http.StatusLocked
	case CodeMalformedInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
