// Package harness provides conformance testing for the loopc compiler.
//
// A scenario names a program, the input fed to it and what must happen:
// the printed output, an expected error, final local values and assertions
// over the emitted instruction trace. The harness compiles the program with
// the real compiler, validates the module, executes it on the reference
// machine and evaluates every expectation.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: count_to_three
//	description: "while loop prints 0, 1, 2"
//	lang: loop
//	program:
//	  stmts:
//	    - assign: {target: i, value: {int: 0}}
//	    - ...
//	input: ""
//	expect:
//	  output: ["0", "1", "2"]
//	  locals: {i: 3}
//	assertions:
//	  - type: trace_count
//	    op: br_if
//	    count: 1
//	  - type: local_type
//	    local: i
//	    ty: i64
//
// program_file may replace program; it is resolved relative to the
// scenario file.
//
// # Assertion Types
//
//   - trace_contains: an instruction with the given op (and arg) is emitted
//   - trace_order: ops appear in the given order
//   - trace_count: an op is emitted exactly N times
//   - local_type: a local is declared with the given width
//
// # Markdown Suites
//
// Many small scenarios can live in one Markdown document; see ExtractSuite.
//
// # Golden Files
//
// RunWithGolden compares the module text against
// testdata/golden/{scenario.Name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
