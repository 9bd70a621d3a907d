package spreadsheet

import (
	"errors"
	"fmt"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
	"github.com/vogtb/go-sheetgraph/packages/formula"
)

// AppErrorCode represents gRPC-style error codes for application-level errors.
// note that we are skipping error codes that don't make sense for our use-case,
// like unauthenticated, or permission denied.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// Unknown error.
	Unknown AppErrorCode = 2

	// InvalidArgument indicates the caller supplied text that could not be
	// accepted, e.g. a formula that does not parse.
	InvalidArgument AppErrorCode = 3

	// FailedPrecondition indicates the operation was rejected because the
	// sheet is not in a state required for it, e.g. it would close a cycle.
	FailedPrecondition AppErrorCode = 9

	// OutOfRange means a position past the supported grid was used.
	OutOfRange AppErrorCode = 11

	// Internal errors. Means some invariants expected by underlying
	// system has been broken.
	Internal AppErrorCode = 13
)

func (c AppErrorCode) String() string {
	switch c {
	case OK:
		return "ok"
	case InvalidArgument:
		return "invalid_argument"
	case FailedPrecondition:
		return "failed_precondition"
	case OutOfRange:
		return "out_of_range"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidPosition is wrapped by every failure caused by a position
	// outside the grid
	ErrInvalidPosition = cellref.ErrInvalidPosition

	// ErrFormulaSyntax is wrapped by every failure to parse formula text
	ErrFormulaSyntax = formula.ErrSyntax

	// ErrCircularDependency is wrapped when a formula would reference itself,
	// directly or through other cells
	ErrCircularDependency = errors.New("circular dependency")

	// ErrDetachedCell is wrapped when content is set on a cell that has been
	// removed from its sheet
	ErrDetachedCell = errors.New("cell is no longer part of the sheet")
)

// AppError represents errors at the application level (not formula
// evaluation errors, which are values)
type AppError struct {
	Code    AppErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func wrapError(code AppErrorCode, err error, format string, args ...any) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...) + ": " + err.Error(),
		Err:     err,
	}
}

func invalidPositionError(pos cellref.Position) *AppError {
	return &AppError{
		Code:    OutOfRange,
		Message: fmt.Sprintf("%s: row %d, column %d is outside the sheet", ErrInvalidPosition, pos.Row, pos.Col),
		Err:     ErrInvalidPosition,
	}
}

// CodeOf extracts the AppErrorCode carried by err, Unknown if there is none
func CodeOf(err error) AppErrorCode {
	if err == nil {
		return OK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Unknown
}
