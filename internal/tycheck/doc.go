// Package tycheck is the type oracle consumed by the code generator.
//
// Check walks a module once, annotates every expression node with its
// ast.ResultType and returns the module's variables in discovery order
// (order of first assignment). The code generator trusts these answers and
// does not re-validate them.
//
// Variables are function scoped: a variable's type is fixed by its first
// assignment and may not change afterwards.
package tycheck
