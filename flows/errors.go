package flows

import (
	"errors"
	"fmt"
)

// Kind classifies every failure a flow can return. The string values are stable and
// safe to show to a user or send to a UI.
type Kind string

const (
	KindInvalidParams            Kind = "INVALID_PARAMS"
	KindInvalidAuthEndpoint      Kind = "INVALID_AUTH_ENDPOINT"
	KindAuthServerError          Kind = "AUTH_SERVER_RETURNED_ERROR"
	KindMissingAuthorizationCode Kind = "MISSING_AUTHORIZATION_CODE"
	KindInvalidCorrelationRecord Kind = "INVALID_LOCAL_CONFIG"
	KindStateMismatch            Kind = "STATE_MISMATCH"
	KindTokenRequestFailed       Kind = "AUTH_TOKEN_REQUEST_FAILED"
	KindTokenResponseInvalid     Kind = "AUTH_TOKEN_REQUEST_INVALID_RESPONSE"
	KindInvalidState             Kind = "INVALID_STATE"
	KindStorageFailed            Kind = "STORAGE_FAILED"
	KindNavigationFailed         Kind = "NAVIGATION_FAILED"
)

// SecurityRelevant reports whether the failure may indicate tampering or a forged callback.
// Callers must abort the flow and require a fresh init rather than offering a retry.
func (k Kind) SecurityRelevant() bool {
	return k == KindStateMismatch || k == KindInvalidCorrelationRecord
}

// Error is the single failure type crossing the flow contract.
type Error struct {
	Kind Kind
	// Detail is extra context that is safe to display, e.g. the provider's error code.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrStateMismatch) works on
// wrapped and detailed errors alike.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidParams            = &Error{Kind: KindInvalidParams}
	ErrInvalidAuthEndpoint      = &Error{Kind: KindInvalidAuthEndpoint}
	ErrAuthServerError          = &Error{Kind: KindAuthServerError}
	ErrMissingAuthorizationCode = &Error{Kind: KindMissingAuthorizationCode}
	ErrInvalidCorrelationRecord = &Error{Kind: KindInvalidCorrelationRecord}
	ErrStateMismatch            = &Error{Kind: KindStateMismatch}
	ErrTokenRequestFailed       = &Error{Kind: KindTokenRequestFailed}
	ErrTokenResponseInvalid     = &Error{Kind: KindTokenResponseInvalid}
	ErrInvalidState             = &Error{Kind: KindInvalidState}
	ErrStorageFailed            = &Error{Kind: KindStorageFailed}
	ErrNavigationFailed         = &Error{Kind: KindNavigationFailed}
)

// Fail builds an *Error of kind wrapping err (which may be nil).
func Fail(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Failf builds an *Error of kind with a formatted cause.
func Failf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
