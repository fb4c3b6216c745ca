// Package store provides SQLite-backed durable storage for compiled modules.
//
// The store is a build cache made of two tables:
//   - Modules: content-addressed compiled modules (canonical JSON and text form)
//   - Builds: an append-only log of compile attempts, successful or not
//
// A build is keyed by the hash of its source document and the compiler
// configuration key. Recompiling the same source with the same
// configuration yields the same module hash, so a cache hit can be served
// straight from the modules table.
//
// # Ordering
//
// Builds carry a logical seq assigned at insert time. Every listing orders
// by seq ASC, id ASC COLLATE BINARY, never by wall-clock time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: builds.module_hash must name a stored module
//
// Module hashes are computed by wasm.ModuleHash using RFC 8785 canonical
// JSON and SHA-256 with domain separation.
package store
