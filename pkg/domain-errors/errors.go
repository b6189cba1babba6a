// Package domainerrors defines the coded errors services return at their
// boundaries. Stores return sentinel errors; services translate them into
// these so transport layers can map codes to HTTP statuses without
// inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and logging.
type Code string

const (
	CodeInvalidInput        Code = "invalid_input"
	CodeBadRequest          Code = "bad_request"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeAlreadyRegistered   Code = "already_registered"
	CodeEmailTaken          Code = "email_taken"
	CodeIDHashTaken         Code = "id_hash_taken"
	CodeExpired             Code = "expired"
	CodeUnauthorized        Code = "unauthorized"
	CodeChallengeMismatch   Code = "challenge_mismatch"
	CodeOriginMismatch      Code = "origin_mismatch"
	CodeCredentialMismatch  Code = "credential_mismatch"
	CodeMalformedCredential Code = "malformed_credential"
	CodeInternal            Code = "internal"
)

// Error carries a code plus a human-readable message. Two Errors are
// equivalent under errors.Is when both code and message match, which keeps
// require.ErrorIs assertions precise in tests.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a cause that surfaces through errors.Unwrap while keeping
// the coded error at the top of the chain.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Message == other.Message
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// HasCode is an alias kept for call sites that read better as a predicate.
func HasCode(err error, code Code) bool { return Is(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors so nothing leaks as a 200.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto the HTTP status the transport layer writes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest, CodeMalformedCredential:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeChallengeMismatch, CodeOriginMismatch, CodeCredentialMismatch:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyRegistered, CodeEmailTaken, CodeIDHashTaken:
		return http.StatusConflict
	case CodeExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
