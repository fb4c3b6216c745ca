// Package machine executes generated modules.
//
// It is a reference interpreter for the structured subset of WebAssembly the
// compiler emits, used by the run command and by conformance tests. The
// operand stack is typed: every pop checks the width the instruction
// expects, so width mixing in generated code surfaces as a runtime error
// instead of a silent reinterpretation.
//
// Imports are resolved by name against a Host. NewStdHost provides the
// builtin print/input functions over an io.Reader and io.Writer.
//
// Execution is single-threaded. A step quota bounds runaway loops and the
// context is polled periodically for cancellation.
package machine
