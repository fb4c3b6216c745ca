package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/loopc/internal/compiler"
	"github.com/roach88/loopc/internal/machine"
	"github.com/roach88/loopc/internal/tycheck"
	"github.com/roach88/loopc/internal/wasm"
)

// DefaultMaxSteps bounds each scenario run so a broken loop lowering fails
// the scenario instead of hanging the test.
const DefaultMaxSteps = 1_000_000

// Harness runs scenarios. The zero value is not usable; use New.
type Harness struct {
	logger   *slog.Logger
	maxSteps int
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithLogger sets the logger for scenario diagnostics.
func WithLogger(l *slog.Logger) HarnessOption {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithMaxSteps sets the per-scenario instruction quota.
func WithMaxSteps(n int) HarnessOption {
	return func(h *Harness) {
		h.maxSteps = n
	}
}

// New creates a Harness. Logs are discarded unless WithLogger is given.
func New(opts ...HarnessOption) *Harness {
	h := &Harness{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run compiles, validates and executes the scenario program and evaluates
// every expectation.
//
// Failed expectations are reported in Result.Errors. The returned error is
// reserved for problems with the scenario itself, such as an unreadable
// program file.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := scenario.Config()
	if err != nil {
		return nil, err
	}
	prog, _, err := scenario.LoadProgram()
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}

	result := NewResult()
	log := h.logger.With("scenario", scenario.Name, "lang", cfg.Capabilities.String())

	mod, err := compiler.CompileModule(prog, tycheck.Checker{}, cfg)
	if err != nil {
		log.Info("compile failed", "error", err)
		result.Err = err
		h.checkError(result, scenario.Expect)
		return result, nil
	}
	result.Module = mod
	result.Trace = traceOf(mod)
	if result.WAT, err = wasm.Text(mod); err != nil {
		return nil, fmt.Errorf("render module: %w", err)
	}

	for _, verr := range wasm.Validate(mod) {
		result.AddError("invalid module: " + verr.Error())
	}

	var out bytes.Buffer
	host := machine.NewStdHost(strings.NewReader(scenario.Input), &out)
	m := machine.New(machine.WithMaxSteps(h.maxSteps), machine.WithLogger(h.logger))
	run, runErr := m.Run(ctx, mod, compiler.ExportName, host)
	result.Output = splitLines(out.String())
	if runErr != nil {
		log.Info("run failed", "error", runErr)
		result.Err = runErr
	} else {
		result.Steps = run.Steps
		log.Info("run finished", "steps", run.Steps, "lines", len(result.Output))
	}

	h.checkError(result, scenario.Expect)
	h.checkOutput(result, scenario.Expect)
	if run != nil {
		checkLocals(result, run.Locals, scenario.Expect.Locals)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) checkError(result *Result, expect Expect) {
	switch {
	case expect.Error == "" && result.Err != nil:
		result.AddError(fmt.Sprintf("unexpected error: %v", result.Err))
	case expect.Error != "" && result.Err == nil:
		result.AddError(fmt.Sprintf("expected error containing %q, program succeeded", expect.Error))
	case expect.Error != "" && !strings.Contains(result.Err.Error(), expect.Error):
		result.AddError(fmt.Sprintf("expected error containing %q, got: %v", expect.Error, result.Err))
	}
}

func (h *Harness) checkOutput(result *Result, expect Expect) {
	if expect.Output == nil {
		return
	}
	if len(expect.Output) != len(result.Output) {
		result.AddError(fmt.Sprintf("output: expected %d lines %q, got %d lines %q",
			len(expect.Output), expect.Output, len(result.Output), result.Output))
		return
	}
	for i := range expect.Output {
		if expect.Output[i] != result.Output[i] {
			result.AddError(fmt.Sprintf("output line %d: expected %q, got %q", i+1, expect.Output[i], result.Output[i]))
		}
	}
}

func checkLocals(result *Result, got map[wasm.ID]machine.Value, want map[string]any) {
	names := make([]string, 0, len(want))
	for name := range want {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		exp := want[name]
		v, ok := got[wasm.ID(name)]
		if !ok {
			result.AddError(fmt.Sprintf("local %s: not declared", name))
			continue
		}
		var wantVal machine.Value
		switch e := exp.(type) {
		case int:
			wantVal = machine.I64(int64(e))
		case int64:
			wantVal = machine.I64(e)
		case bool:
			wantVal = machine.Bool(e)
		default:
			result.AddError(fmt.Sprintf("local %s: unsupported expected value %v (%T)", name, exp, exp))
			continue
		}
		if v != wantVal {
			result.AddError(fmt.Sprintf("local %s: expected %s, got %s", name, wantVal, v))
		}
	}
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
