// Package compiler lowers a type-annotated AST into a WebAssembly module.
//
// The package has three layers, leaves first:
//
//  1. Expression compiler: every expression leaves exactly one value on the
//     operand stack, at the width implied by its static type (i64 for int,
//     i32 for bool).
//  2. Statement compiler: every statement has net-zero stack effect. A while
//     loop is lowered to an outer `if` guard around a bottom-tested `loop`
//     that branches back with br_if while the condition holds.
//  3. Module assembler: locals from the type oracle's bindings, the compiled
//     body as the single entry function, the fixed builtin imports and one
//     export.
//
// Operand widths are always chosen from static types before emission; no
// width is decided at run time. Short-circuit `and`/`or` are lowered to
// value-producing `if (result i32)` blocks so the right operand is only
// evaluated when it decides the result.
//
// The same compiler serves both language levels. Capabilities selects which
// constructs are accepted: LangVar (integers, variables, arithmetic, builtin
// calls) or LangLoop (adds booleans, control flow and short-circuit logic).
//
// Compilation is synchronous and deterministic. Each call owns its own
// emitter; the first error aborts the whole module.
package compiler
