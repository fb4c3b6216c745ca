package ast

import "fmt"

// Type is the static type of a value-producing expression.
type Type uint8

const (
	Int Type = iota + 1
	Bool
)

// String returns the surface name of the type.
func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	return t == Int || t == Bool
}

// ResultType is the annotation the type oracle attaches to an expression.
// It is either NotVoid (the expression pushes a value of Ty) or Void
// (a call that pushes nothing).
type ResultType interface {
	isResultType()
	String() string
}

// NotVoid annotates an expression that produces a value.
type NotVoid struct {
	Ty Type
}

// Void annotates a call that produces no value.
type Void struct{}

func (NotVoid) isResultType() {}
func (Void) isResultType()    {}

func (r NotVoid) String() string { return r.Ty.String() }
func (Void) String() string      { return "void" }

// TypeOf unwraps a result annotation. ok is false for Void and for missing
// (nil) annotations.
func TypeOf(r ResultType) (t Type, ok bool) {
	if nv, isValue := r.(NotVoid); isValue && nv.Ty.Valid() {
		return nv.Ty, true
	}
	return 0, false
}
