package ast

import "fmt"

// UnaryOperator is a prefix operator.
type UnaryOperator uint8

const (
	USub UnaryOperator = iota + 1 // numeric negation
	Not                           // logical not
)

var unarySymbols = map[UnaryOperator]string{
	USub: "-",
	Not:  "not",
}

func (op UnaryOperator) String() string {
	if s, ok := unarySymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("UnaryOperator(%d)", uint8(op))
}

// ParseUnaryOperator maps a surface symbol to its operator.
func ParseUnaryOperator(sym string) (UnaryOperator, bool) {
	for op, s := range unarySymbols {
		if s == sym {
			return op, true
		}
	}
	return 0, false
}

// BinaryOperator is an infix operator.
type BinaryOperator uint8

const (
	Add BinaryOperator = iota + 1
	Sub
	Mul
	And
	Or
	Less
	LessEq
	Greater
	GreaterEq
	Eq
	NotEq
)

var binarySymbols = map[BinaryOperator]string{
	Add:       "+",
	Sub:       "-",
	Mul:       "*",
	And:       "and",
	Or:        "or",
	Less:      "<",
	LessEq:    "<=",
	Greater:   ">",
	GreaterEq: ">=",
	Eq:        "==",
	NotEq:     "!=",
}

func (op BinaryOperator) String() string {
	if s, ok := binarySymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOperator(%d)", uint8(op))
}

// ParseBinaryOperator maps a surface symbol to its operator.
func ParseBinaryOperator(sym string) (BinaryOperator, bool) {
	for op, s := range binarySymbols {
		if s == sym {
			return op, true
		}
	}
	return 0, false
}

// IsArithmetic reports whether op is one of + - *.
func (op BinaryOperator) IsArithmetic() bool {
	return op == Add || op == Sub || op == Mul
}

// IsLogical reports whether op is a short-circuit operator.
func (op BinaryOperator) IsLogical() bool {
	return op == And || op == Or
}

// IsOrdering reports whether op is one of < <= > >=.
func (op BinaryOperator) IsOrdering() bool {
	return op == Less || op == LessEq || op == Greater || op == GreaterEq
}

// IsEquality reports whether op is == or !=.
func (op BinaryOperator) IsEquality() bool {
	return op == Eq || op == NotEq
}
