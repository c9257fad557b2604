package stm

import (
	"errors"
	"fmt"
)

// Error is an engine error carrying a stable code.
//
// Codes follow STM-{AREA}-{NNNN}. Two Errors match under errors.Is when
// their codes are equal, so sentinels survive WithDetails/WithCause.
type Error struct {
	Code    string
	Message string
	Details string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, Cause: e.Cause}
}

// WithCause returns a copy of the error wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, Cause: cause}
}

// ErrorCode extracts the code from err if it wraps an *Error.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Transaction outcomes.
var (
	// ErrAborted resolves the Future of a transaction that referenced a
	// deleted cell. It is permanent; the transaction was not retried.
	ErrAborted = newError("STM-TXN-4100", "transaction aborted")

	// ErrCancelled resolves the Future of a transaction whose submission
	// context ended between two attempts.
	ErrCancelled = newError("STM-TXN-4990", "transaction cancelled")

	// ErrTransactionBusy is returned when a transaction is submitted while
	// a previous submission of it is still running.
	ErrTransactionBusy = newError("STM-TXN-4090", "transaction already running")
)

// Attempt failures. These drive rollback and retry and are only surfaced
// through observers and logs.
var (
	// ErrStepFailed wraps the error returned by a step.
	ErrStepFailed = newError("STM-TXN-4220", "step failed")

	// ErrStepPanicked records a panic recovered from a step.
	ErrStepPanicked = newError("STM-TXN-4221", "step panicked")

	// ErrConflict reports a read-set snapshot that no longer matches its cell.
	ErrConflict = newError("STM-TXN-4091", "read set invalidated by a concurrent commit")

	// ErrCellDeleted reports a read-set or write-set cell that is no longer live.
	ErrCellDeleted = newError("STM-CELL-4040", "cell deleted")
)

// Argument and lifecycle errors.
var (
	// ErrNilTransaction is returned when submitting a nil transaction.
	ErrNilTransaction = newError("STM-ARG-4000", "nil transaction")

	// ErrInvalidCellID is returned by ParseCellID.
	ErrInvalidCellID = newError("STM-ARG-4001", "invalid cell id")

	// ErrClosed is returned after Close has been called.
	ErrClosed = newError("STM-SYS-5030", "stm closed")
)
