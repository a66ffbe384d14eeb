package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers. The API layer maps kinds to
// HTTP status codes; the orchestrator uses them to decide whether an
// external failure is fatal.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindProviderDisabled
	KindProviderMisconfigured
	KindExternalSyncFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	case KindProviderDisabled:
		return "provider_disabled"
	case KindProviderMisconfigured:
		return "provider_misconfigured"
	case KindExternalSyncFailure:
		return "external_sync_failure"
	default:
		return "internal_error"
	}
}

// Error is the error type returned by calsync services.
type Error struct {
	Kind Kind
	// Op names the failing operation, e.g. "events.create".
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels like ErrNotFound
// work with errors.Is regardless of Op and Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrValidation            = &Error{Kind: KindValidation}
	ErrConflict              = &Error{Kind: KindConflict}
	ErrProviderDisabled      = &Error{Kind: KindProviderDisabled}
	ErrProviderMisconfigured = &Error{Kind: KindProviderMisconfigured}
	ErrExternalSyncFailure   = &Error{Kind: KindExternalSyncFailure}
)

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-facing message of err. Internal errors are
// reduced to a generic text so causes never leak to clients.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "an unexpected error occurred"
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// NotFoundf returns a NotFound error for op.
func NotFoundf(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validationf returns a Validation error for op.
func Validationf(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Conflictf returns a Conflict error for op.
func Conflictf(op, format string, args ...any) error {
	return &Error{Kind: KindConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// ProviderDisabled returns an error reporting that provider is turned off.
func ProviderDisabled(op, provider string) error {
	return &Error{Kind: KindProviderDisabled, Op: op, Msg: provider + " integration is disabled"}
}

// ProviderMisconfiguredf returns a ProviderMisconfigured error for op.
func ProviderMisconfiguredf(op, format string, args ...any) error {
	return &Error{Kind: KindProviderMisconfigured, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// ExternalSyncFailure wraps err, which came from an external provider call.
func ExternalSyncFailure(op, msg string, err error) error {
	return &Error{Kind: KindExternalSyncFailure, Op: op, Msg: msg, Err: err}
}

// Internal wraps an unexpected failure.
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}
