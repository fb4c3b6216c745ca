package compiler

import (
	"fmt"

	"github.com/roach88/loopc/internal/ast"
	"github.com/roach88/loopc/internal/tycheck"
	"github.com/roach88/loopc/internal/wasm"
)

// Entry point of every generated module.
const (
	EntryFunc  wasm.ID = "main"
	ExportName         = "main"
)

// Oracle answers the type questions the compiler depends on. It annotates
// every expression of m and returns one binding per distinct variable in a
// stable discovery order. tycheck.Checker is the bundled implementation.
type Oracle interface {
	CheckModule(m *ast.Module) ([]tycheck.Binding, error)
}

// CompileModule type checks m with oracle, lowers its statements and
// assembles the result. Nothing is returned on error.
func CompileModule(m *ast.Module, oracle Oracle, cfg Config) (*wasm.Module, error) {
	vars, err := oracle.CheckModule(m)
	if err != nil {
		return nil, fmt.Errorf("type check: %w", err)
	}
	body, err := CompileStmts(m.Stmts, cfg.Capabilities)
	if err != nil {
		return nil, err
	}
	return Assemble(vars, body, cfg)
}

// Assemble wraps a compiled body into a module: one local per binding in the
// given order, a single parameterless entry function, the builtin imports
// sized by cfg.MaxMemSize and the entry export. No globals, data or table
// entries are produced.
func Assemble(vars []tycheck.Binding, body []wasm.Instr, cfg Config) (*wasm.Module, error) {
	locals := make([]wasm.Local, 0, len(vars))
	seen := make(map[ast.Ident]bool, len(vars))
	for _, v := range vars {
		if seen[v.ID] {
			return nil, fmt.Errorf("assemble: duplicate binding for variable %s", v.ID)
		}
		seen[v.ID] = true

		vt, ok := valType(v.Ty)
		if !ok {
			return nil, newError(KindTypeDispatch, ast.Pos{}, string(v.ID), "variable has no machine width (type %s)", v.Ty)
		}
		locals = append(locals, wasm.Local{ID: wasm.ID(v.ID), Ty: vt})
	}

	return &wasm.Module{
		Imports:   wasm.BuiltinImports(cfg.MaxMemSize),
		Exports:   []wasm.Export{{Name: ExportName, Func: EntryFunc}},
		Globals:   []wasm.Global{},
		Data:      []wasm.DataSegment{},
		FuncTable: []wasm.ID{},
		Funcs: []wasm.Func{{
			ID:     EntryFunc,
			Params: []wasm.Local{},
			Locals: locals,
			Body:   body,
		}},
	}, nil
}
