package compiler

import (
	"fmt"

	"github.com/roach88/loopc/internal/ast"
	"github.com/roach88/loopc/internal/wasm"
)

// CompileStmt lowers one statement. The result has net-zero stack effect.
func CompileStmt(s ast.Stmt, caps Capabilities) ([]wasm.Instr, error) {
	return CompileStmts([]ast.Stmt{s}, caps)
}

// CompileStmts lowers a block in order. Loop labels are numbered from zero
// per call, in source order.
func CompileStmts(stmts []ast.Stmt, caps Capabilities) ([]wasm.Instr, error) {
	em := newEmitter(caps)
	if err := em.block(stmts); err != nil {
		return nil, err
	}
	return em.out, nil
}

func (em *emitter) block(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := s.Accept(em); err != nil {
			return err
		}
	}
	return nil
}

func (em *emitter) VisitStmtExp(s *ast.StmtExp) error {
	return em.expr(s.E)
}

func (em *emitter) VisitAssign(s *ast.Assign) error {
	if err := em.expr(s.Value); err != nil {
		return err
	}
	em.emit(&wasm.LocalSet{Local: wasm.ID(s.Target)})
	return nil
}

func (em *emitter) VisitIf(s *ast.IfStmt) error {
	if err := em.require(CapControlFlow, s.Pos(), "if"); err != nil {
		return err
	}
	if err := em.expr(s.Cond); err != nil {
		return err
	}
	then, err := em.capture(func() error { return em.block(s.Then) })
	if err != nil {
		return err
	}
	els, err := em.capture(func() error { return em.block(s.Else) })
	if err != nil {
		return err
	}
	em.emit(&wasm.If{Then: then, Else: els})
	return nil
}

// VisitWhile lowers a pre-tested loop to a guard around a bottom-tested loop:
//
//	cond
//	if
//	  loop $L
//	    body
//	    cond
//	    br_if $L
//	  end
//	end
//
// The body runs zero times when cond is false on entry and the condition is
// re-checked before every further iteration.
func (em *emitter) VisitWhile(s *ast.WhileStmt) error {
	if err := em.require(CapControlFlow, s.Pos(), "while"); err != nil {
		return err
	}
	label := wasm.ID(fmt.Sprintf("while_%d", em.loops))
	em.loops++

	if err := em.expr(s.Cond); err != nil {
		return err
	}
	body, err := em.capture(func() error {
		if err := em.block(s.Body); err != nil {
			return err
		}
		if err := em.expr(s.Cond); err != nil {
			return err
		}
		em.emit(&wasm.Branch{Label: label, Conditional: true})
		return nil
	})
	if err != nil {
		return err
	}
	em.emit(&wasm.If{
		Then: []wasm.Instr{&wasm.Loop{Label: label, Body: body}},
		Else: []wasm.Instr{},
	})
	return nil
}
