package harness

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioDir(t *testing.T) {
	scenarios, err := LoadScenarioDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarkdownSuite(t *testing.T) {
	scenarios, err := LoadSuite("testdata/suites/basics.md")
	require.NoError(t, err)
	require.Len(t, scenarios, 8)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestGolden(t *testing.T) {
	for _, name := range []string{"count_to_three", "short_circuit_and", "var_arithmetic"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata/scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestAssertGolden_NoModule(t *testing.T) {
	result := NewResult()
	err := AssertGolden(t, "never_written", result)
	assert.Error(t, err)
}

func TestRun_ReportsWrongOutput(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_output
program:
  stmts:
    - expr: {call: {name: print, args: [{int: 1}]}}
expect:
  output: ["2"]
`), "")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected "2", got "1"`)
}

func TestRun_ReportsMissingError(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: missing_error
program:
  stmts:
    - expr: {call: {name: print, args: [{int: 1}]}}
expect:
  error: E201
`), "")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "program succeeded")
}

func TestRun_ReportsUnexpectedError(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: unexpected_error
program:
  stmts:
    - expr: {call: {name: nope}}
expect:
  output: []
`), "")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Nil(t, result.Module)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ReportsLocalMismatch(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: locals
program:
  stmts:
    - assign: {target: x, value: {int: 4}}
    - assign: {target: ok, value: {bool: true}}
expect:
  locals: {x: 5, ok: false, missing: 1}
`), "")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	// Sorted by local name.
	assert.Contains(t, result.Errors[0], "local missing: not declared")
	assert.Contains(t, result.Errors[1], "local ok: expected i32:0, got i32:1")
	assert.Contains(t, result.Errors[2], "local x: expected i64:5, got i64:4")
}

func TestRun_StepQuota(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: forever
program:
  stmts:
    - while:
        cond: {bool: true}
        body: []
expect:
  error: max steps
`), "")
	require.NoError(t, err)

	var logs bytes.Buffer
	h := New(WithMaxSteps(500), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	result, err := h.Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, logs.String(), "run failed")
	assert.Contains(t, logs.String(), "scenario=forever")
}

func TestRun_Trace(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/count_to_three.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.NotEmpty(t, result.Trace)

	assert.Equal(t, TraceEvent{Op: "i64.const", Arg: "0", Depth: 0}, result.Trace[0])
	assert.Equal(t, TraceEvent{Op: "loop", Arg: "while_0", Depth: 1}, result.Trace[6])
	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, TraceEvent{Op: "br_if", Arg: "while_0", Depth: 2}, last)
	assert.Greater(t, result.Steps, 0)
	assert.True(t, strings.HasPrefix(result.WAT, "(module\n"))
}
