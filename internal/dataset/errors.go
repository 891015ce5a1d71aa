package dataset

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes dataset engine failures.
type ErrorCode string

const (
	// CodeUnsupportedFormat indicates a file extension outside the supported set.
	CodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"

	// CodeFileNotFound indicates a source file path that does not exist.
	CodeFileNotFound ErrorCode = "FILE_NOT_FOUND"

	// CodeStore wraps any failure reported by the persistent engine.
	CodeStore ErrorCode = "STORE_ERROR"

	// CodeLazyEngine wraps any failure reported by the transient frame engine.
	CodeLazyEngine ErrorCode = "LAZY_ENGINE_ERROR"

	// CodeNoProjectOpen indicates a persistent-only operation with no active store.
	CodeNoProjectOpen ErrorCode = "NO_PROJECT_OPEN"

	// CodeDatasetNotFound indicates a name present in neither substrate.
	CodeDatasetNotFound ErrorCode = "DATASET_NOT_FOUND"

	// CodeColumnNotFound indicates a reference to a column the dataset lacks.
	CodeColumnNotFound ErrorCode = "COLUMN_NOT_FOUND"

	// CodeInvalidFilter indicates a malformed filter spec (empty condition
	// list, disallowed column characters, unknown operator).
	CodeInvalidFilter ErrorCode = "INVALID_FILTER"

	// CodeInvalidArgument indicates malformed operation parameters.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeSession is the catch-all for operation-specific invariant violations.
	CodeSession ErrorCode = "SESSION_ERROR"
)

// Error is the typed failure returned across the engine boundary.
// The wrapped cause (if any) is preserved for errors.Is/As chains; messages
// from the underlying engines are passed through verbatim.
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Errf builds an Error with a formatted message.
func Errf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around an underlying engine failure, passing its
// message through verbatim. Returns nil if err is nil.
func Wrap(code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: err.Error(), cause: err}
}

// CodeOf extracts the ErrorCode from an error chain, or "" if the chain
// contains no *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether the error chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
