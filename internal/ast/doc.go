// Package ast defines the typed abstract syntax tree consumed by the code
// generator.
//
// This package contains type definitions only. Every other internal package
// that touches programs imports ast; ast imports nothing internal.
//
// Key design constraints:
//   - Expressions and statements are closed sets. Dispatch goes through
//     ExprVisitor and StmtVisitor so that adding a variant breaks the build of
//     every pass that does not handle it yet.
//   - Expressions form a strict tree: no sharing, no cycles.
//   - Type annotations are written once by the type oracle and read-only after.
//   - Identifiers are NFC normalized on construction.
package ast
