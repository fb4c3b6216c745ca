package machine

import (
	"errors"
	"fmt"
)

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNoEntry: the module has no exported entry function.
	ErrCodeNoEntry RuntimeErrorCode = "NO_ENTRY"
	// ErrCodeUnresolvedImport: the host does not provide an imported function.
	ErrCodeUnresolvedImport RuntimeErrorCode = "UNRESOLVED_IMPORT"
	// ErrCodeStackUnderflow: an instruction popped from an empty stack.
	ErrCodeStackUnderflow RuntimeErrorCode = "STACK_UNDERFLOW"
	// ErrCodeTypeMismatch: an operand had a different width than expected.
	ErrCodeTypeMismatch RuntimeErrorCode = "TYPE_MISMATCH"
	// ErrCodeUnknownLocal: a local was accessed that the function never declared.
	ErrCodeUnknownLocal RuntimeErrorCode = "UNKNOWN_LOCAL"
	// ErrCodeUnknownFunction: call of a function that is neither imported nor defined.
	ErrCodeUnknownFunction RuntimeErrorCode = "UNKNOWN_FUNCTION"
	// ErrCodeHostFailure: a host function returned an error.
	ErrCodeHostFailure RuntimeErrorCode = "HOST_FAILURE"
)

// RuntimeError is a trap raised while executing a module.
type RuntimeError struct {
	Code    RuntimeErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func trap(code RuntimeErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// StepsExceededError is returned when execution exceeds the step quota.
type StepsExceededError struct {
	Steps int
	Limit int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("execution exceeded max steps quota: %d steps > %d limit", e.Steps, e.Limit)
}

// IsQuotaError reports whether err stems from the step quota.
func IsQuotaError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}

// IsRuntimeError reports whether err is a trap with the given code.
func IsRuntimeError(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// ErrInputExhausted is returned by input builtins when no input is left.
var ErrInputExhausted = errors.New("input exhausted")
