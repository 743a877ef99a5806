// Package apperr provides a structured application error type shared
// across every component of the pipeline (§7).
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError into one of §7's error kinds; KindOf reads it
// back from a (possibly wrapped) error.
type Kind string

const (
	KindConfig      Kind = "CONFIG"       // missing/invalid configuration (env vars, prompt file, pipeline class)
	KindTransientIO Kind = "TRANSIENT_IO" // network/HTTP/LLM/Store calls that may succeed on retry
	KindParse       Kind = "PARSE"        // malformed feed/HTML/JSON/LLM response
	KindValidation  Kind = "VALIDATION"   // well-formed but out-of-contract data (score range, schema mismatch)
	KindUniqueness  Kind = "UNIQUENESS"   // unique-constraint conflicts, always non-fatal (I4)
	KindDelivery    Kind = "DELIVERY"     // e-mail/chat transport failure
	KindInvariant   Kind = "INVARIANT"    // a data-model invariant (I1-I6) was violated
)

// AppError is a structured application error.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s/%s] %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Kind, e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func New(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func Wrap(err error, kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

// Config reports a missing/invalid configuration value (§6 env vars,
// prompt file, pipeline class compatibility).
func Config(message string) *AppError {
	return &AppError{Kind: KindConfig, Code: "CONFIG", Message: message}
}

// TransientIO wraps a network/Store/LLM call failure that may succeed on
// retry (§4.3 "retry up to max_retries").
func TransientIO(operation string, err error) *AppError {
	return &AppError{
		Kind: KindTransientIO, Code: "TRANSIENT_IO",
		Message: fmt.Sprintf("transient I/O error: %s", operation), Err: err,
	}
}

// Parse reports malformed input (feed XML, HTML, LLM JSON) that cannot be
// interpreted at all.
func Parse(what string, err error) *AppError {
	return &AppError{Kind: KindParse, Code: "PARSE", Message: fmt.Sprintf("failed to parse %s", what), Err: err}
}

// Validation reports well-formed but out-of-contract data (§4.3 response
// validation rules).
func Validation(message string) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION", Message: message}
}

// Uniqueness reports a unique-constraint conflict; callers treat this as
// "already present", never as a hard failure (I4).
func Uniqueness(resource string) *AppError {
	return &AppError{Kind: KindUniqueness, Code: "UNIQUENESS", Message: fmt.Sprintf("%s already exists", resource)}
}

// Delivery reports an e-mail/chat transport failure.
func Delivery(transport string, err error) *AppError {
	return &AppError{Kind: KindDelivery, Code: "DELIVERY", Message: fmt.Sprintf("%s delivery failed", transport), Err: err}
}

// Invariant reports a violated data-model invariant (I1-I6).
func Invariant(message string) *AppError {
	return &AppError{Kind: KindInvariant, Code: "INVARIANT", Message: message}
}

// IsAppError reports whether err is (or wraps) an *AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts the *AppError from err, wrapping it as a generic
// TransientIO error if it is not already one.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return TransientIO("unclassified", err)
}

// KindOf returns the Kind of err, or "" if err is not an *AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
