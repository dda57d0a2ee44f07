package fulfillment

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable class of an engine failure.
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindInvalidState        Kind = "INVALID_STATE"
	KindConflict            Kind = "CONFLICT"
	KindTransactionConflict Kind = "TRANSACTION_CONFLICT"
	KindInvalidArgument     Kind = "INVALID_ARGUMENT"
)

// Error carries a Kind plus a human-readable reason.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same Kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrInvalidState        = &Error{Kind: KindInvalidState}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrTransactionConflict = &Error{Kind: KindTransactionConflict}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error { return newError(KindNotFound, format, args...) }
func invalidState(reason string) *Error          { return newError(KindInvalidState, "%s", reason) }
func conflict(reason string) *Error              { return newError(KindConflict, "%s", reason) }
func invalidArgument(format string, args ...any) *Error {
	return newError(KindInvalidArgument, format, args...)
}

// KindOf returns the Kind of err, or "" for errors the engine did not classify.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Stable reasons surfaced to callers.
const (
	ReasonRequestClosed     = "request closed"
	ReasonDuplicateBid      = "duplicate bid"
	ReasonAlreadyProcessed  = "already processed"
	ReasonMaterialsPending  = "materials still pending"
	ReasonLogisticsAwarded  = "logistics already awarded"
	ReasonNotOwner          = "caller does not own the batch"
	ReasonNotBidder         = "caller did not submit the bid"
	ReasonRetryLater        = "retry later"
	ReasonBatchPastSourcing = "batch is past the sourcing stage"
	ReasonUnknownBatch      = "unknown batch"
)
