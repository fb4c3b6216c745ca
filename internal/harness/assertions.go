package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/loopc/internal/wasm"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s%s", i+1, strings.Repeat("  ", event.Depth), event.Op)
			if event.Arg != "" {
				fmt.Fprintf(&buf, " %s", event.Arg)
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

func matches(event TraceEvent, op, arg string) bool {
	return event.Op == op && (arg == "" || event.Arg == arg)
}

func describeOp(op, arg string) string {
	if arg == "" {
		return op
	}
	return op + " " + arg
}

// assertTraceContains checks that some emitted instruction matches op and,
// when given, arg.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matches(event, assertion.Op, assertion.Arg) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeOp(assertion.Op, assertion.Arg),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that ops appear in the specified order.
// Ops don't need to be consecutive (intervening instructions are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(assertion.Ops) && event.Op == assertion.Ops[next] {
			next++
		}
	}

	if next < len(assertion.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
			Actual:   fmt.Sprintf("matched %d of %d, missing %s", next, len(assertion.Ops), assertion.Ops[next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks that the op appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, assertion.Op, assertion.Arg) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, describeOp(assertion.Op, assertion.Arg)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertLocalType checks the declared width of a local of the entry function.
func assertLocalType(m *wasm.Module, assertion Assertion) error {
	if m == nil || len(m.Funcs) == 0 {
		return &AssertionError{
			Type:     AssertLocalType,
			Expected: fmt.Sprintf("local %s %s", assertion.Local, assertion.Ty),
			Actual:   "no module",
		}
	}
	for _, l := range m.Funcs[0].Locals {
		if string(l.ID) != assertion.Local {
			continue
		}
		if l.Ty.String() != assertion.Ty {
			return &AssertionError{
				Type:     AssertLocalType,
				Expected: fmt.Sprintf("local %s %s", assertion.Local, assertion.Ty),
				Actual:   fmt.Sprintf("local %s %s", string(l.ID), l.Ty),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertLocalType,
		Expected: fmt.Sprintf("local %s %s", assertion.Local, assertion.Ty),
		Actual:   "local not declared",
	}
}

// EvaluateAssertions runs all assertions against a result and returns the
// failure messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertLocalType:
			err = assertLocalType(result.Module, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
