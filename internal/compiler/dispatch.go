package compiler

import (
	"github.com/roach88/loopc/internal/ast"
	"github.com/roach88/loopc/internal/wasm"
)

// Static type to machine width. Every width decision in the compiler goes
// through this file.

// valType maps a static type to its representation.
func valType(t ast.Type) (wasm.ValType, bool) {
	switch t {
	case ast.Int:
		return wasm.I64, true
	case ast.Bool:
		return wasm.I32, true
	default:
		return 0, false
	}
}

// widthTag is the suffix that selects a builtin import variant.
func widthTag(t ast.Type) string {
	if t == ast.Bool {
		return "bool"
	}
	return "i64"
}

// operandType returns the static type of an operand that decides an
// instruction's width. A missing or void annotation is a dispatch failure.
func operandType(e ast.Expr, subject string) (ast.Type, error) {
	t, ok := ast.TypeOf(e.Ty())
	if !ok {
		return 0, newError(KindTypeDispatch, e.Pos(), subject,
			"operand has no static type (annotation %v)", e.Ty())
	}
	return t, nil
}

// operandWidth resolves the width of a comparison from its left operand.
func operandWidth(e ast.Expr, subject string) (wasm.ValType, ast.Type, error) {
	t, err := operandType(e, subject)
	if err != nil {
		return 0, 0, err
	}
	vt, ok := valType(t)
	if !ok {
		return 0, 0, newError(KindTypeDispatch, e.Pos(), subject, "no machine width for type %s", t)
	}
	return vt, t, nil
}

var numOps = map[ast.BinaryOperator]wasm.NumOp{
	ast.Add: wasm.OpAdd,
	ast.Sub: wasm.OpSub,
	ast.Mul: wasm.OpMul,
}

var relOps = map[ast.BinaryOperator]wasm.RelOp{
	ast.Less:      wasm.OpLtS,
	ast.LessEq:    wasm.OpLeS,
	ast.Greater:   wasm.OpGtS,
	ast.GreaterEq: wasm.OpGeS,
	ast.Eq:        wasm.OpEq,
	ast.NotEq:     wasm.OpNe,
}

// builtinOps maps surface builtin names to the operation part of their
// import name.
var builtinOps = map[ast.Ident]string{
	"print":     "print",
	"input_int": "input",
}

// builtinImport derives the import a builtin call links against:
// "{operation}_{widthTag}".
func builtinImport(c *ast.Call) (wasm.ID, error) {
	op, ok := builtinOps[c.Name]
	if !ok {
		return "", newError(KindUnknownFunction, c.Pos(), string(c.Name),
			"not a builtin (known: print, input_int)")
	}
	t, err := builtinWidth(c)
	if err != nil {
		return "", err
	}
	return wasm.ID(op + "_" + widthTag(t)), nil
}

// builtinWidth picks the type that selects a builtin's variant: the first
// argument's type for calls that consume a value, the call's own result type
// otherwise.
//
// Compatibility: a void deciding type falls back to int. This keeps the
// historical naming of argument-less void calls and is deliberately limited
// to builtin naming; no other width decision uses it.
func builtinWidth(c *ast.Call) (ast.Type, error) {
	var r ast.ResultType
	if len(c.Args) > 0 {
		r = c.Args[0].Ty()
	} else {
		r = c.Ty()
	}
	switch r := r.(type) {
	case ast.NotVoid:
		if r.Ty.Valid() {
			return r.Ty, nil
		}
	case ast.Void:
		return ast.Int, nil
	}
	return 0, newError(KindTypeDispatch, c.Pos(), string(c.Name), "cannot select builtin variant: no static type")
}
