package formula

import (
	"errors"
	"fmt"
)

// ErrorCode represents the error values a formula can evaluate to
type ErrorCode uint8

const (
	ErrorCodeRef        ErrorCode = 1 // #REF! - reference outside the grid
	ErrorCodeValue      ErrorCode = 2 // #VALUE! - operand is not a number
	ErrorCodeArithmetic ErrorCode = 3 // #ARITHM! - division by zero, overflow
)

// ErrorMapper maps error codes to the markers printed in place of a value
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeRef:        "#REF!",
	ErrorCodeValue:      "#VALUE!",
	ErrorCodeArithmetic: "#ARITHM!",
}

// Error is an evaluation error. it is a value, not a failure: it flows
// through dependent formulas and is cached like a number.
type Error struct {
	ErrorCode ErrorCode
	Message   string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.ErrorCode]
}

// Marker returns the printable form (#REF!, #VALUE!, #ARITHM!)
func (e *Error) Marker() string {
	return ErrorMapper[e.ErrorCode]
}

func (e *Error) String() string {
	return e.Marker()
}

func NewError(code ErrorCode, message string) *Error {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &Error{
		ErrorCode: code,
		Message:   message,
	}
}

// ErrSyntax is wrapped by every parse failure
var ErrSyntax = errors.New("formula syntax error")

// SyntaxError describes where and why an expression failed to parse
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d: %s", ErrSyntax, e.Pos, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func newSyntaxError(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}
