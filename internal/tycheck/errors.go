package tycheck

import (
	"fmt"

	"github.com/roach88/loopc/internal/ast"
)

// Type error codes (E300-E399)
const (
	ErrUnboundVariable = "E301" // variable read before any assignment
	ErrOperandType     = "E302" // operand has the wrong type for its operator
	ErrTypeMismatch    = "E303" // operands of a binary operator differ in type
	ErrVoidValue       = "E304" // a call without result used as a value
	ErrArity           = "E305" // builtin called with the wrong number of arguments
	ErrDiscardedValue  = "E306" // value-producing expression used as a statement
	ErrReassignType    = "E307" // variable assigned a value of a different type
	ErrConditionType   = "E308" // if/while condition is not bool
)

// Error is a type error located at an AST node.
type Error struct {
	Code    string
	Pos     ast.Pos
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errorf(pos ast.Pos, code, format string, args ...any) *Error {
	return &Error{Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
