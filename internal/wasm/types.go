package wasm

import "fmt"

// ValType is a WebAssembly value type.
type ValType uint8

const (
	I32 ValType = iota + 1 // narrow: booleans, 0 or 1
	I64                    // wide: integers
)

func (t ValType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	default:
		return fmt.Sprintf("ValType(%d)", uint8(t))
	}
}

// ID is a symbolic index (function, local or label name) without the
// leading '$' used in text format.
type ID string

func (id ID) String() string {
	return "$" + string(id)
}

// NumOp is an integer arithmetic operator.
type NumOp uint8

const (
	OpAdd NumOp = iota + 1
	OpSub
	OpMul
)

func (op NumOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	default:
		return fmt.Sprintf("NumOp(%d)", uint8(op))
	}
}

// RelOp is an integer comparison. Its result is always i32.
type RelOp uint8

const (
	OpEq RelOp = iota + 1
	OpNe
	OpLtS
	OpLeS
	OpGtS
	OpGeS
)

func (op RelOp) String() string {
	switch op {
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpLtS:
		return "lt_s"
	case OpLeS:
		return "le_s"
	case OpGtS:
		return "gt_s"
	case OpGeS:
		return "ge_s"
	default:
		return fmt.Sprintf("RelOp(%d)", uint8(op))
	}
}
