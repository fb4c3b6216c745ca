package machine_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopc/internal/ast"
	"github.com/roach88/loopc/internal/compiler"
	"github.com/roach88/loopc/internal/machine"
	"github.com/roach88/loopc/internal/source"
	"github.com/roach88/loopc/internal/tycheck"
	"github.com/roach88/loopc/internal/wasm"
)

func compile(t *testing.T, doc string) *wasm.Module {
	t.Helper()
	m, err := source.FromYAML("prog.yaml", []byte(doc))
	require.NoError(t, err)
	mod, err := compiler.CompileModule(m, tycheck.Checker{}, compiler.DefaultConfig())
	require.NoError(t, err)
	return mod
}

// assemble wraps a hand-written body with locals x:i64 and b:i32.
func assemble(t *testing.T, body ...wasm.Instr) *wasm.Module {
	t.Helper()
	mod, err := compiler.Assemble([]tycheck.Binding{{ID: "x", Ty: ast.Int}, {ID: "b", Ty: ast.Bool}}, body, compiler.DefaultConfig())
	require.NoError(t, err)
	return mod
}

func run(t *testing.T, mod *wasm.Module, input string, opts ...machine.Option) (string, *machine.Result, error) {
	t.Helper()
	var out bytes.Buffer
	res, err := machine.New(opts...).Run(context.Background(), mod, compiler.ExportName, machine.NewStdHost(strings.NewReader(input), &out))
	return out.String(), res, err
}

const countdown = `stmts:
  - assign: {target: i, value: {int: 0}}
  - while:
      cond: {binary: {op: "<", left: {var: i}, right: {int: 3}}}
      body:
        - expr: {call: {name: print, args: [{var: i}]}}
        - assign: {target: i, value: {binary: {op: "+", left: {var: i}, right: {int: 1}}}}
`

func TestRun_CountingLoop(t *testing.T) {
	out, res, err := run(t, compile(t, countdown), "")
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
	assert.Equal(t, machine.I64(3), res.Locals["i"])
	assert.Positive(t, res.Steps)
}

func TestRun_NestedLoops(t *testing.T) {
	mod := compile(t, `stmts:
  - assign: {target: i, value: {int: 0}}
  - while:
      cond: {binary: {op: "<", left: {var: i}, right: {int: 2}}}
      body:
        - assign: {target: j, value: {int: 0}}
        - while:
            cond: {binary: {op: "<", left: {var: j}, right: {int: 2}}}
            body:
              - expr: {call: {name: print, args: [{binary: {op: "+", left: {binary: {op: "*", left: {var: i}, right: {int: 10}}}, right: {var: j}}}]}}
              - assign: {target: j, value: {binary: {op: "+", left: {var: j}, right: {int: 1}}}}
        - assign: {target: i, value: {binary: {op: "+", left: {var: i}, right: {int: 1}}}}
`)
	out, _, err := run(t, mod, "")
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n10\n11\n", out)
}

func TestRun_LoopNotEntered(t *testing.T) {
	mod := compile(t, `stmts:
  - while:
      cond: {bool: false}
      body: [{expr: {call: {name: print, args: [{int: 1}]}}}]
  - expr: {call: {name: print, args: [{unary: {op: "-", arg: {int: 5}}}]}}
`)
	out, _, err := run(t, mod, "")
	require.NoError(t, err)
	assert.Equal(t, "-5\n", out)
}

func TestRun_InputAndBooleans(t *testing.T) {
	mod := compile(t, `stmts:
  - assign: {target: n, value: {call: {name: input_int}}}
  - expr: {call: {name: print, args: [{binary: {op: "*", left: {var: n}, right: {int: 2}}}]}}
  - expr: {call: {name: print, args: [{binary: {op: ">", left: {var: n}, right: {int: 1}}}]}}
  - expr: {call: {name: print, args: [{unary: {op: not, arg: {binary: {op: ">", left: {var: n}, right: {int: 1}}}}}]}}
`)
	out, _, err := run(t, mod, "  21 \n")
	require.NoError(t, err)
	assert.Equal(t, "42\nTrue\nFalse\n", out)
}

func TestRun_ShortCircuitSkipsRightOperand(t *testing.T) {
	// Evaluating the right operand would read input, which is empty.
	mod := compile(t, `stmts:
  - assign:
      target: a
      value: {binary: {op: and, left: {bool: false}, right: {binary: {op: ">", left: {call: {name: input_int}}, right: {int: 0}}}}}
  - assign:
      target: o
      value: {binary: {op: or, left: {bool: true}, right: {binary: {op: ">", left: {call: {name: input_int}}, right: {int: 0}}}}}
  - expr: {call: {name: print, args: [{var: a}]}}
  - expr: {call: {name: print, args: [{var: o}]}}
`)
	out, _, err := run(t, mod, "")
	require.NoError(t, err)
	assert.Equal(t, "False\nTrue\n", out)
}

func TestRun_InputErrors(t *testing.T) {
	mod := compile(t, "stmts: [{assign: {target: n, value: {call: {name: input_int}}}}]\n")

	_, _, err := run(t, mod, "")
	require.Error(t, err)
	assert.True(t, machine.IsRuntimeError(err, machine.ErrCodeHostFailure))
	assert.True(t, errors.Is(err, machine.ErrInputExhausted))

	_, _, err = run(t, mod, "twelve\n")
	require.Error(t, err)
	assert.True(t, machine.IsRuntimeError(err, machine.ErrCodeHostFailure))
	assert.Contains(t, err.Error(), `invalid integer input "twelve"`)
}

func TestRun_Quota(t *testing.T) {
	mod := compile(t, `stmts:
  - assign: {target: x, value: {int: 0}}
  - while:
      cond: {bool: true}
      body: [{assign: {target: x, value: {binary: {op: "+", left: {var: x}, right: {int: 1}}}}}]
`)
	_, res, err := run(t, mod, "", machine.WithMaxSteps(100))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, machine.IsQuotaError(err))

	var se *machine.StepsExceededError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 100, se.Limit)
	assert.Equal(t, 101, se.Steps)
}

func TestRun_ContextCancel(t *testing.T) {
	mod := compile(t, `stmts:
  - while:
      cond: {bool: true}
      body: []
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := machine.New(machine.WithMaxSteps(0)).Run(ctx, mod, compiler.ExportName, machine.NewStdHost(nil, io.Discard))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Traps(t *testing.T) {
	tests := []struct {
		name string
		body []wasm.Instr
		code machine.RuntimeErrorCode
	}{
		{
			name: "stack underflow",
			body: []wasm.Instr{&wasm.NumBinOp{Ty: wasm.I64, Op: wasm.OpAdd}},
			code: machine.ErrCodeStackUnderflow,
		},
		{
			name: "narrow value into wide local",
			body: []wasm.Instr{&wasm.Const{Ty: wasm.I32, Value: 1}, &wasm.LocalSet{Local: "x"}},
			code: machine.ErrCodeTypeMismatch,
		},
		{
			name: "mixed operand widths",
			body: []wasm.Instr{
				&wasm.Const{Ty: wasm.I64, Value: 1},
				&wasm.Const{Ty: wasm.I32, Value: 1},
				&wasm.RelOpInstr{Ty: wasm.I64, Op: wasm.OpEq},
			},
			code: machine.ErrCodeTypeMismatch,
		},
		{
			name: "wide condition",
			body: []wasm.Instr{&wasm.Const{Ty: wasm.I64, Value: 1}, &wasm.If{}},
			code: machine.ErrCodeTypeMismatch,
		},
		{
			name: "undeclared local",
			body: []wasm.Instr{&wasm.LocalGet{Local: "ghost"}},
			code: machine.ErrCodeUnknownLocal,
		},
		{
			name: "unknown function",
			body: []wasm.Instr{&wasm.Call{Func: "launch"}},
			code: machine.ErrCodeUnknownFunction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, assemble(t, tt.body...), "")
			require.Error(t, err)
			assert.True(t, machine.IsRuntimeError(err, tt.code), "got %v", err)
		})
	}
}

func TestRun_EntryAndImports(t *testing.T) {
	mod := assemble(t)

	_, err := machine.New().Run(context.Background(), mod, "start", machine.NewStdHost(nil, io.Discard))
	assert.True(t, machine.IsRuntimeError(err, machine.ErrCodeNoEntry))

	_, err = machine.New().Run(context.Background(), mod, compiler.ExportName, machine.HostFuncs{})
	assert.True(t, machine.IsRuntimeError(err, machine.ErrCodeUnresolvedImport))
	assert.Contains(t, err.Error(), "console.print_i32")
}

func TestRun_HostResultChecks(t *testing.T) {
	host := machine.HostFuncs{}
	for _, imp := range wasm.BuiltinImports(1) {
		host[imp.Module+"."+imp.Name] = func([]machine.Value) ([]machine.Value, error) { return nil, nil }
	}
	host["console.input_i64"] = func([]machine.Value) ([]machine.Value, error) {
		return []machine.Value{machine.I32(1)}, nil
	}
	mod := assemble(t, &wasm.Call{Func: wasm.InputI64}, &wasm.LocalSet{Local: "x"})

	_, err := machine.New().Run(context.Background(), mod, compiler.ExportName, host)
	assert.True(t, machine.IsRuntimeError(err, machine.ErrCodeTypeMismatch))

	host["console.input_i64"] = func([]machine.Value) ([]machine.Value, error) { return nil, nil }
	_, err = machine.New().Run(context.Background(), mod, compiler.ExportName, host)
	assert.True(t, machine.IsRuntimeError(err, machine.ErrCodeHostFailure))
}

func TestRun_NarrowValuesWrap(t *testing.T) {
	mod := assemble(t, &wasm.Const{Ty: wasm.I32, Value: 1<<32 + 5}, &wasm.LocalSet{Local: "b"})

	_, res, err := run(t, mod, "")
	require.NoError(t, err)
	assert.Equal(t, machine.I32(5), res.Locals["b"])
	assert.Equal(t, machine.I64(0), res.Locals["x"], "locals start at zero")
}

func TestStdHost(t *testing.T) {
	var out bytes.Buffer
	h := machine.NewStdHost(strings.NewReader("7\nTRUE\n0\nmaybe\n"), &out)

	call := func(name string, args ...machine.Value) ([]machine.Value, error) {
		t.Helper()
		f, ok := h.Lookup(wasm.ImportModuleConsole, name)
		require.True(t, ok, name)
		return f(args)
	}

	_, err := call("print_i64", machine.I64(-12))
	require.NoError(t, err)
	_, err = call("print_i32", machine.I32(3))
	require.NoError(t, err)
	_, err = call("print_bool", machine.Bool(true))
	require.NoError(t, err)
	_, err = call("print_bool", machine.Bool(false))
	require.NoError(t, err)
	assert.Equal(t, "-12\n3\nTrue\nFalse\n", out.String())

	v, err := call("input_i32")
	require.NoError(t, err)
	assert.Equal(t, []machine.Value{machine.I32(7)}, v)

	v, err = call("input_bool")
	require.NoError(t, err)
	assert.Equal(t, []machine.Value{machine.Bool(true)}, v)

	v, err = call("input_bool")
	require.NoError(t, err)
	assert.Equal(t, []machine.Value{machine.Bool(false)}, v)

	_, err = call("input_bool")
	assert.EqualError(t, err, `invalid boolean input "maybe"`)

	_, err = call("input_i64")
	assert.ErrorIs(t, err, machine.ErrInputExhausted)

	_, ok := h.Lookup("js", "mem")
	assert.False(t, ok)
}

func TestValue(t *testing.T) {
	assert.Equal(t, "i64:-3", machine.I64(-3).String())
	assert.Equal(t, machine.I32(0), machine.Zero(wasm.I32))
	assert.Equal(t, machine.I32(1), machine.Bool(true))
}
