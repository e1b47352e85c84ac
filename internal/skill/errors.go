package skill

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorNoHandler      ErrorCode = "NO_HANDLER"
	ErrorHandlerFailed  ErrorCode = "HANDLER_FAILED"
	ErrorVerification   ErrorCode = "VERIFICATION_FAILED"
	ErrorInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// Error is the typed failure raised by the dispatcher. Stack is set only for
// failures recovered from a panic.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
	Stack  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("skill: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("skill: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var skillErr *Error
	if !errors.As(err, &skillErr) {
		return ""
	}
	return skillErr.Code
}
