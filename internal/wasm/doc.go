// Package wasm defines the target instruction set and module shape produced by
// the code generator, plus the supporting passes that operate on assembled
// modules: validation, canonical encoding, content hashing and text rendering.
//
// Only the structured subset of WebAssembly that the generator emits is
// modeled: constants, locals, integer arithmetic and comparisons, calls to
// imported functions, if/else, loop and br_if.
//
// Instructions are emitted once and never mutated. Each instruction is owned
// by the single sequence that contains it.
package wasm
