package wasm

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// WriteText renders m in WebAssembly text format, one instruction per line,
// two-space indentation. Output is deterministic for a given module.
func WriteText(w io.Writer, m *Module) error {
	p := &textPrinter{w: w}
	p.line("(module")
	p.depth++

	for _, imp := range m.Imports {
		switch d := imp.Desc.(type) {
		case *ImportFunc:
			p.line("(import %q %q (func %s%s))", imp.Module, imp.Name, d.ID, signature(d.Params, d.Results))
		case *ImportMemory:
			p.line("(import %q %q (memory %s %d %d))", imp.Module, imp.Name, d.ID, d.Min, d.Max)
		}
	}
	for _, g := range m.Globals {
		ty := g.Ty.String()
		if g.Mutable {
			ty = "(mut " + ty + ")"
		}
		p.line("(global %s %s (%s.const %d))", g.ID, ty, g.Ty, g.Init)
	}
	for _, d := range m.Data {
		p.line("(data (i32.const %d) %q)", d.Offset, string(d.Bytes))
	}
	if len(m.FuncTable) > 0 {
		ids := make([]string, len(m.FuncTable))
		for i, id := range m.FuncTable {
			ids[i] = id.String()
		}
		p.line("(table funcref (elem %s))", strings.Join(ids, " "))
	}
	for _, e := range m.Exports {
		p.line("(export %q (func %s))", e.Name, e.Func)
	}
	for _, f := range m.Funcs {
		p.function(&f)
	}

	p.depth--
	p.line(")")
	return p.err
}

// Text renders m to a string. See WriteText.
func Text(m *Module) (string, error) {
	var buf bytes.Buffer
	if err := WriteText(&buf, m); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func signature(params, results []ValType) string {
	var sb strings.Builder
	if len(params) > 0 {
		sb.WriteString(" (param")
		for _, t := range params {
			sb.WriteString(" " + t.String())
		}
		sb.WriteString(")")
	}
	if len(results) > 0 {
		sb.WriteString(" (result")
		for _, t := range results {
			sb.WriteString(" " + t.String())
		}
		sb.WriteString(")")
	}
	return sb.String()
}

type textPrinter struct {
	w     io.Writer
	depth int
	err   error
}

func (p *textPrinter) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.depth), fmt.Sprintf(format, args...))
}

func (p *textPrinter) function(f *Func) {
	header := "(func " + f.ID.String()
	for _, prm := range f.Params {
		header += fmt.Sprintf(" (param %s %s)", prm.ID, prm.Ty)
	}
	if f.Result != nil {
		header += " (result " + f.Result.String() + ")"
	}
	p.line("%s", header)
	p.depth++
	for _, l := range f.Locals {
		p.line("(local %s %s)", l.ID, l.Ty)
	}
	p.seq(f.Body)
	p.depth--
	p.line(")")
}

func (p *textPrinter) seq(body []Instr) {
	for _, in := range body {
		if err := in.Accept(p); err != nil && p.err == nil {
			p.err = err
		}
	}
}

func (p *textPrinter) VisitConst(i *Const) error {
	p.line("%s.const %d", i.Ty, i.Value)
	return nil
}

func (p *textPrinter) VisitLocalGet(i *LocalGet) error {
	p.line("local.get %s", i.Local)
	return nil
}

func (p *textPrinter) VisitLocalSet(i *LocalSet) error {
	p.line("local.set %s", i.Local)
	return nil
}

func (p *textPrinter) VisitNumBinOp(i *NumBinOp) error {
	p.line("%s.%s", i.Ty, i.Op)
	return nil
}

func (p *textPrinter) VisitRelOp(i *RelOpInstr) error {
	p.line("%s.%s", i.Ty, i.Op)
	return nil
}

func (p *textPrinter) VisitCall(i *Call) error {
	p.line("call %s", i.Func)
	return nil
}

func (p *textPrinter) VisitIf(i *If) error {
	if i.Result != nil {
		p.line("if (result %s)", i.Result)
	} else {
		p.line("if")
	}
	p.depth++
	p.seq(i.Then)
	p.depth--
	if len(i.Else) > 0 {
		p.line("else")
		p.depth++
		p.seq(i.Else)
		p.depth--
	}
	p.line("end")
	return nil
}

func (p *textPrinter) VisitLoop(i *Loop) error {
	p.line("loop %s", i.Label)
	p.depth++
	p.seq(i.Body)
	p.depth--
	p.line("end")
	return nil
}

func (p *textPrinter) VisitBranch(i *Branch) error {
	if i.Conditional {
		p.line("br_if %s", i.Label)
	} else {
		p.line("br %s", i.Label)
	}
	return nil
}
