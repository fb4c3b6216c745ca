package wasm

import (
	"fmt"
	"slices"
	"strings"
)

// Module validation error codes (E100-E199)
const (
	ErrFuncCount       = "E101" // module must define exactly one function
	ErrExportTarget    = "E102" // export refers to an unknown function
	ErrDuplicateLocal  = "E103" // local declared twice
	ErrUndeclaredLocal = "E104" // local.get/local.set of an undeclared local
	ErrUnknownCallee   = "E105" // call of a function that is neither imported nor defined
	ErrStackUnderflow  = "E106" // instruction pops from an empty stack
	ErrOperandType     = "E107" // operand width does not match the instruction
	ErrArmMismatch     = "E108" // if arms disagree with the declared result
	ErrUnbalancedBlock = "E109" // block leaves values behind or is missing its result
	ErrUnknownLabel    = "E110" // branch target is not an enclosing loop
)

// ValidationError describes one problem found in an assembled module.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the structural and stack-typing rules of a generated module.
// It returns every error found rather than stopping at the first.
func Validate(m *Module) []ValidationError {
	v := &validator{mod: m}

	if len(m.Funcs) != 1 {
		v.fail("funcs", ErrFuncCount, "expected exactly one function, found %d", len(m.Funcs))
	}
	for i, e := range m.Exports {
		if _, ok := m.FuncByID(e.Func); !ok {
			v.fail(fmt.Sprintf("exports[%d]", i), ErrExportTarget, "export %q refers to unknown function %s", e.Name, e.Func)
		}
	}
	for _, f := range m.Funcs {
		v.function(&f)
	}
	return v.errs
}

type validator struct {
	mod    *Module
	errs   []ValidationError
	locals map[ID]ValType
	stack  []ValType
	labels []ID
	at     string
}

func (v *validator) fail(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *validator) function(f *Func) {
	v.locals = make(map[ID]ValType, len(f.Params)+len(f.Locals))
	for i, l := range append(append([]Local{}, f.Params...), f.Locals...) {
		if _, dup := v.locals[l.ID]; dup {
			v.fail(fmt.Sprintf("%s.locals[%d]", f.ID, i), ErrDuplicateLocal, "duplicate local %s", l.ID)
			continue
		}
		v.locals[l.ID] = l.Ty
	}

	var want []ValType
	if f.Result != nil {
		want = []ValType{*f.Result}
	}
	v.block(string(f.ID)+".body", f.Body, want)
}

// block validates body on a fresh stack and checks it ends holding exactly want.
func (v *validator) block(prefix string, body []Instr, want []ValType) {
	saved, savedAt := v.stack, v.at
	v.stack = nil

	for i, in := range body {
		v.at = fmt.Sprintf("%s[%d]", prefix, i)
		// Visit methods report through v.fail and always return nil.
		_ = in.Accept(v)
	}

	if !slices.Equal(v.stack, want) {
		v.fail(prefix, ErrUnbalancedBlock, "block leaves %s, expected %s", typeList(v.stack), typeList(want))
	}
	v.stack, v.at = saved, savedAt
}

func (v *validator) push(t ValType) {
	v.stack = append(v.stack, t)
}

func (v *validator) pop(want ValType) {
	if len(v.stack) == 0 {
		v.fail(v.at, ErrStackUnderflow, "expected %s operand, stack is empty", want)
		return
	}
	got := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	if got != want {
		v.fail(v.at, ErrOperandType, "expected %s operand, found %s", want, got)
	}
}

func (v *validator) local(id ID) (ValType, bool) {
	t, ok := v.locals[id]
	if !ok {
		v.fail(v.at, ErrUndeclaredLocal, "undeclared local %s", id)
	}
	return t, ok
}

func (v *validator) VisitConst(i *Const) error {
	v.push(i.Ty)
	return nil
}

func (v *validator) VisitLocalGet(i *LocalGet) error {
	t, ok := v.local(i.Local)
	if !ok {
		t = I64
	}
	v.push(t)
	return nil
}

func (v *validator) VisitLocalSet(i *LocalSet) error {
	if t, ok := v.local(i.Local); ok {
		v.pop(t)
	} else if len(v.stack) > 0 {
		v.stack = v.stack[:len(v.stack)-1]
	}
	return nil
}

func (v *validator) VisitNumBinOp(i *NumBinOp) error {
	v.pop(i.Ty)
	v.pop(i.Ty)
	v.push(i.Ty)
	return nil
}

func (v *validator) VisitRelOp(i *RelOpInstr) error {
	v.pop(i.Ty)
	v.pop(i.Ty)
	v.push(I32)
	return nil
}

func (v *validator) VisitCall(i *Call) error {
	var params, results []ValType
	if f, _, ok := v.mod.ImportedFunc(i.Func); ok {
		params, results = f.Params, f.Results
	} else if f, ok := v.mod.FuncByID(i.Func); ok {
		for _, p := range f.Params {
			params = append(params, p.Ty)
		}
		if f.Result != nil {
			results = []ValType{*f.Result}
		}
	} else {
		v.fail(v.at, ErrUnknownCallee, "call of unknown function %s", i.Func)
		return nil
	}
	for j := len(params) - 1; j >= 0; j-- {
		v.pop(params[j])
	}
	for _, t := range results {
		v.push(t)
	}
	return nil
}

func (v *validator) VisitIf(i *If) error {
	v.pop(I32)
	var want []ValType
	if i.Result != nil {
		want = []ValType{*i.Result}
		if len(i.Else) == 0 {
			v.fail(v.at, ErrArmMismatch, "if with result %s has no else arm", *i.Result)
		}
	}
	at := v.at
	v.block(at+".then", i.Then, want)
	if len(i.Else) > 0 || i.Result == nil {
		v.block(at+".else", i.Else, want)
	}
	if i.Result != nil {
		v.push(*i.Result)
	}
	return nil
}

func (v *validator) VisitLoop(i *Loop) error {
	v.labels = append(v.labels, i.Label)
	v.block(v.at+".body", i.Body, nil)
	v.labels = v.labels[:len(v.labels)-1]
	return nil
}

func (v *validator) VisitBranch(i *Branch) error {
	if !slices.Contains(v.labels, i.Label) {
		v.fail(v.at, ErrUnknownLabel, "branch to %s outside its loop", i.Label)
	}
	if i.Conditional {
		v.pop(I32)
	}
	return nil
}

func typeList(ts []ValType) string {
	if len(ts) == 0 {
		return "[]"
	}
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
