package harness

import (
	"strconv"

	"github.com/roach88/loopc/internal/wasm"
)

// TraceEvent is one emitted instruction of the entry function, in pre-order.
type TraceEvent struct {
	Op    string `json:"op"`
	Arg   string `json:"arg,omitempty"`
	Depth int    `json:"depth"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Output holds the lines printed by the program.
	Output []string `json:"output"`

	// Trace is the flattened instruction sequence of the entry function.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Err is the compile or runtime error, if any.
	Err error `json:"-"`

	// Module is the compiled module; nil when compilation failed.
	Module *wasm.Module `json:"-"`

	// WAT is the text form of Module.
	WAT string `json:"wat,omitempty"`

	// Steps counts executed instructions.
	Steps int `json:"steps"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Output: []string{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// traceOf flattens the instructions of the first function of m.
func traceOf(m *wasm.Module) []TraceEvent {
	trace := []TraceEvent{}
	if m == nil || len(m.Funcs) == 0 {
		return trace
	}
	var walk func(seq []wasm.Instr, depth int)
	walk = func(seq []wasm.Instr, depth int) {
		for _, in := range seq {
			trace = append(trace, TraceEvent{Op: wasm.Mnemonic(in), Arg: argOf(in), Depth: depth})
			switch n := in.(type) {
			case *wasm.If:
				walk(n.Then, depth+1)
				walk(n.Else, depth+1)
			case *wasm.Loop:
				walk(n.Body, depth+1)
			}
		}
	}
	walk(m.Funcs[0].Body, 0)
	return trace
}

func argOf(in wasm.Instr) string {
	switch n := in.(type) {
	case *wasm.Const:
		return strconv.FormatInt(n.Value, 10)
	case *wasm.LocalGet:
		return string(n.Local)
	case *wasm.LocalSet:
		return string(n.Local)
	case *wasm.Call:
		return string(n.Func)
	case *wasm.Loop:
		return string(n.Label)
	case *wasm.Branch:
		return string(n.Label)
	case *wasm.If:
		if n.Result != nil {
			return n.Result.String()
		}
	}
	return ""
}
