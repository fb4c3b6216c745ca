package compiler

import (
	"fmt"

	"github.com/roach88/loopc/internal/ast"
	"github.com/roach88/loopc/internal/wasm"
)

// CompileExpr lowers a single annotated expression. The result pushes exactly
// one value (none for a void call) and consumes nothing else.
func CompileExpr(e ast.Expr, caps Capabilities) ([]wasm.Instr, error) {
	em := newEmitter(caps)
	if err := em.expr(e); err != nil {
		return nil, err
	}
	return em.out, nil
}

// emitter accumulates the instruction sequence of one compile call.
type emitter struct {
	caps  Capabilities
	out   []wasm.Instr
	loops int
}

func newEmitter(caps Capabilities) *emitter {
	return &emitter{caps: caps, out: []wasm.Instr{}}
}

func (em *emitter) emit(ins ...wasm.Instr) {
	em.out = append(em.out, ins...)
}

func (em *emitter) expr(e ast.Expr) error {
	return e.Accept(em)
}

// capture runs fn against an empty sequence and returns what it emitted,
// leaving the enclosing sequence untouched.
func (em *emitter) capture(fn func() error) ([]wasm.Instr, error) {
	saved := em.out
	em.out = []wasm.Instr{}
	err := fn()
	seq := em.out
	em.out = saved
	return seq, err
}

func (em *emitter) require(want Capabilities, pos ast.Pos, subject string) error {
	if em.caps.Has(want) {
		return nil
	}
	return newError(KindUnsupported, pos, subject, "requires %s, compiling for %s", want, em.caps)
}

func (em *emitter) VisitIntConst(e *ast.IntConst) error {
	em.emit(&wasm.Const{Ty: wasm.I64, Value: e.Value})
	return nil
}

func (em *emitter) VisitBoolConst(e *ast.BoolConst) error {
	if err := em.require(CapBooleans, e.Pos(), fmt.Sprint(e.Value)); err != nil {
		return err
	}
	em.emit(&wasm.Const{Ty: wasm.I32, Value: boolToI32(e.Value)})
	return nil
}

// VisitName loads the local; its width is the one declared for the variable.
func (em *emitter) VisitName(e *ast.Name) error {
	em.emit(&wasm.LocalGet{Local: wasm.ID(e.ID)})
	return nil
}

func (em *emitter) VisitUnOp(e *ast.UnOp) error {
	switch e.Op {
	case ast.USub:
		// 0 - arg
		em.emit(&wasm.Const{Ty: wasm.I64, Value: 0})
		if err := em.expr(e.Arg); err != nil {
			return err
		}
		em.emit(&wasm.NumBinOp{Ty: wasm.I64, Op: wasm.OpSub})
	case ast.Not:
		if err := em.require(CapBooleans, e.Pos(), e.Op.String()); err != nil {
			return err
		}
		// arg == 0
		em.emit(&wasm.Const{Ty: wasm.I32, Value: 0})
		if err := em.expr(e.Arg); err != nil {
			return err
		}
		em.emit(&wasm.RelOpInstr{Ty: wasm.I32, Op: wasm.OpEq})
	default:
		return newError(KindTypeDispatch, e.Pos(), e.Op.String(), "unknown unary operator")
	}
	return nil
}

func (em *emitter) VisitBinOp(e *ast.BinOp) error {
	switch {
	case e.Op.IsArithmetic():
		return em.arithmetic(e)
	case e.Op.IsOrdering(), e.Op.IsEquality():
		return em.comparison(e)
	case e.Op == ast.And:
		return em.shortCircuit(e, false)
	case e.Op == ast.Or:
		return em.shortCircuit(e, true)
	default:
		return newError(KindTypeDispatch, e.Pos(), e.Op.String(), "unknown binary operator")
	}
}

func (em *emitter) arithmetic(e *ast.BinOp) error {
	if err := em.expr(e.Left); err != nil {
		return err
	}
	if err := em.expr(e.Right); err != nil {
		return err
	}
	em.emit(&wasm.NumBinOp{Ty: wasm.I64, Op: numOps[e.Op]})
	return nil
}

// comparison selects the compare width from the left operand's static type.
// The result is i32 for every operand width.
func (em *emitter) comparison(e *ast.BinOp) error {
	if err := em.require(CapBooleans, e.Pos(), e.Op.String()); err != nil {
		return err
	}
	width, t, err := operandWidth(e.Left, e.Op.String())
	if err != nil {
		return err
	}
	if e.Op.IsOrdering() && t != ast.Int {
		return newError(KindTypeDispatch, e.Pos(), e.Op.String(), "ordering is only defined on int, found %s", t)
	}
	if err := em.expr(e.Left); err != nil {
		return err
	}
	if err := em.expr(e.Right); err != nil {
		return err
	}
	em.emit(&wasm.RelOpInstr{Ty: width, Op: relOps[e.Op]})
	return nil
}

// shortCircuit lowers `and` / `or` to a value-producing if. The right operand
// is compiled into exactly one arm, so it only runs when it decides the result:
//
//	and: left; if (result i32) right else i32.const 0 end
//	or:  left; if (result i32) i32.const 1 else right end
func (em *emitter) shortCircuit(e *ast.BinOp, isOr bool) error {
	if err := em.require(CapBooleans|CapShortCircuit, e.Pos(), e.Op.String()); err != nil {
		return err
	}
	if err := em.expr(e.Left); err != nil {
		return err
	}
	right, err := em.capture(func() error { return em.expr(e.Right) })
	if err != nil {
		return err
	}
	decided := []wasm.Instr{&wasm.Const{Ty: wasm.I32, Value: boolToI32(isOr)}}

	branch := &wasm.If{Result: wasm.ResultOf(wasm.I32), Then: right, Else: decided}
	if isOr {
		branch.Then, branch.Else = decided, right
	}
	em.emit(branch)
	return nil
}

func (em *emitter) VisitCall(e *ast.Call) error {
	target, err := builtinImport(e)
	if err != nil {
		return err
	}
	for _, arg := range e.Args {
		if err := em.expr(arg); err != nil {
			return err
		}
	}
	em.emit(&wasm.Call{Func: target})
	return nil
}

func boolToI32(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
