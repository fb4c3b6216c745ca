package machine

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/loopc/internal/wasm"
)

// DefaultMaxSteps bounds execution when no quota is configured.
const DefaultMaxSteps = 10_000_000

// ctxPollInterval is how many steps run between context checks.
const ctxPollInterval = 1024

// HostFunc implements an imported function.
type HostFunc func(args []Value) ([]Value, error)

// Host resolves imported functions.
type Host interface {
	Lookup(module, name string) (HostFunc, bool)
}

// Machine executes modules. A Machine holds configuration only and may be
// reused; each Run has its own state.
type Machine struct {
	maxSteps int
	logger   *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithMaxSteps sets the instruction quota. Zero disables it.
func WithMaxSteps(n int) Option {
	return func(m *Machine) {
		m.maxSteps = n
	}
}

// WithLogger sets the logger used for execution diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// New creates a Machine.
func New(opts ...Option) *Machine {
	m := &Machine{
		maxSteps: DefaultMaxSteps,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Result summarizes a completed run.
type Result struct {
	Steps  int
	Locals map[wasm.ID]Value
}

// Run executes the function exported as entry.
func (m *Machine) Run(ctx context.Context, mod *wasm.Module, entry string, host Host) (*Result, error) {
	fn, ok := mod.ExportedFunc(entry)
	if !ok {
		return nil, trap(ErrCodeNoEntry, "no exported function %q", entry)
	}
	if len(fn.Params) > 0 {
		return nil, trap(ErrCodeNoEntry, "entry function %s takes parameters", fn.ID)
	}

	imports := make(map[wasm.ID]importedFunc)
	for _, imp := range mod.Imports {
		f, isFunc := imp.Desc.(*wasm.ImportFunc)
		if !isFunc {
			continue
		}
		impl, found := host.Lookup(imp.Module, imp.Name)
		if !found {
			return nil, trap(ErrCodeUnresolvedImport, "host does not provide %s.%s", imp.Module, imp.Name)
		}
		imports[f.ID] = importedFunc{sig: f, impl: impl}
	}

	x := &execution{
		ctx:     ctx,
		imports: imports,
		locals:  make(map[wasm.ID]Value, len(fn.Locals)),
		quota:   newQuota(m.maxSteps),
	}
	for _, l := range fn.Locals {
		x.locals[l.ID] = Zero(l.Ty)
	}

	m.logger.Debug("run starting", "entry", fn.ID, "locals", len(fn.Locals), "instrs", wasm.Count(fn.Body))
	if err := x.seq(fn.Body); err != nil {
		m.logger.Debug("run failed", "steps", x.quota.current, "error", err)
		return nil, err
	}
	m.logger.Debug("run finished", "steps", x.quota.current)

	return &Result{Steps: x.quota.current, Locals: x.locals}, nil
}

type importedFunc struct {
	sig  *wasm.ImportFunc
	impl HostFunc
}

// execution is the state of one run.
type execution struct {
	ctx     context.Context
	imports map[wasm.ID]importedFunc
	locals  map[wasm.ID]Value
	stack   []Value
	quota   *quota
	// branch is the label of a taken branch still unwinding to its loop.
	branch wasm.ID
}

func (x *execution) seq(body []wasm.Instr) error {
	for _, in := range body {
		if err := x.quota.check(); err != nil {
			return err
		}
		if x.quota.current%ctxPollInterval == 0 {
			if err := x.ctx.Err(); err != nil {
				return err
			}
		}
		if err := in.Accept(x); err != nil {
			return err
		}
		if x.branch != "" {
			return nil
		}
	}
	return nil
}

func (x *execution) push(v Value) {
	x.stack = append(x.stack, v)
}

func (x *execution) pop(want wasm.ValType) (Value, error) {
	if len(x.stack) == 0 {
		return Value{}, trap(ErrCodeStackUnderflow, "expected %s operand, stack is empty", want)
	}
	v := x.stack[len(x.stack)-1]
	x.stack = x.stack[:len(x.stack)-1]
	if v.Ty != want {
		return Value{}, trap(ErrCodeTypeMismatch, "expected %s operand, found %s", want, v)
	}
	return v, nil
}

func (x *execution) pop2(want wasm.ValType) (Value, Value, error) {
	b, err := x.pop(want)
	if err != nil {
		return Value{}, Value{}, err
	}
	a, err := x.pop(want)
	if err != nil {
		return Value{}, Value{}, err
	}
	return a, b, nil
}

func (x *execution) VisitConst(i *wasm.Const) error {
	x.push(Value{Ty: i.Ty, Bits: normalize(i.Ty, i.Value)})
	return nil
}

func (x *execution) VisitLocalGet(i *wasm.LocalGet) error {
	v, ok := x.locals[i.Local]
	if !ok {
		return trap(ErrCodeUnknownLocal, "local %s is not declared", i.Local)
	}
	x.push(v)
	return nil
}

func (x *execution) VisitLocalSet(i *wasm.LocalSet) error {
	cur, ok := x.locals[i.Local]
	if !ok {
		return trap(ErrCodeUnknownLocal, "local %s is not declared", i.Local)
	}
	v, err := x.pop(cur.Ty)
	if err != nil {
		return err
	}
	x.locals[i.Local] = v
	return nil
}

func (x *execution) VisitNumBinOp(i *wasm.NumBinOp) error {
	a, b, err := x.pop2(i.Ty)
	if err != nil {
		return err
	}
	var r int64
	switch i.Op {
	case wasm.OpAdd:
		r = a.Bits + b.Bits
	case wasm.OpSub:
		r = a.Bits - b.Bits
	case wasm.OpMul:
		r = a.Bits * b.Bits
	default:
		return trap(ErrCodeTypeMismatch, "unknown numeric operator %s", i.Op)
	}
	x.push(Value{Ty: i.Ty, Bits: normalize(i.Ty, r)})
	return nil
}

func (x *execution) VisitRelOp(i *wasm.RelOpInstr) error {
	a, b, err := x.pop2(i.Ty)
	if err != nil {
		return err
	}
	var r bool
	switch i.Op {
	case wasm.OpEq:
		r = a.Bits == b.Bits
	case wasm.OpNe:
		r = a.Bits != b.Bits
	case wasm.OpLtS:
		r = a.Bits < b.Bits
	case wasm.OpLeS:
		r = a.Bits <= b.Bits
	case wasm.OpGtS:
		r = a.Bits > b.Bits
	case wasm.OpGeS:
		r = a.Bits >= b.Bits
	default:
		return trap(ErrCodeTypeMismatch, "unknown comparison %s", i.Op)
	}
	x.push(Bool(r))
	return nil
}

func (x *execution) VisitCall(i *wasm.Call) error {
	f, ok := x.imports[i.Func]
	if !ok {
		return trap(ErrCodeUnknownFunction, "call of unknown function %s", i.Func)
	}
	args := make([]Value, len(f.sig.Params))
	for j := len(args) - 1; j >= 0; j-- {
		v, err := x.pop(f.sig.Params[j])
		if err != nil {
			return err
		}
		args[j] = v
	}
	results, err := f.impl(args)
	if err != nil {
		return &RuntimeError{Code: ErrCodeHostFailure, Message: "host function " + string(i.Func), Err: err}
	}
	if len(results) != len(f.sig.Results) {
		return trap(ErrCodeHostFailure, "host function %s returned %d values, want %d", i.Func, len(results), len(f.sig.Results))
	}
	for j, v := range results {
		if v.Ty != f.sig.Results[j] {
			return trap(ErrCodeTypeMismatch, "host function %s returned %s, want %s", i.Func, v, f.sig.Results[j])
		}
		x.push(v)
	}
	return nil
}

func (x *execution) VisitIf(i *wasm.If) error {
	cond, err := x.pop(wasm.I32)
	if err != nil {
		return err
	}
	arm := i.Else
	if cond.Bits != 0 {
		arm = i.Then
	}
	return x.seq(arm)
}

func (x *execution) VisitLoop(i *wasm.Loop) error {
	for {
		if err := x.seq(i.Body); err != nil {
			return err
		}
		if x.branch != i.Label {
			// Fell off the end, or unwinding to an outer label.
			return nil
		}
		x.branch = ""
	}
}

func (x *execution) VisitBranch(i *wasm.Branch) error {
	if i.Conditional {
		cond, err := x.pop(wasm.I32)
		if err != nil {
			return err
		}
		if cond.Bits == 0 {
			return nil
		}
	}
	x.branch = i.Label
	return nil
}

// normalize wraps v to the width of t.
func normalize(t wasm.ValType, v int64) int64 {
	if t == wasm.I32 {
		return int64(int32(v))
	}
	return v
}
