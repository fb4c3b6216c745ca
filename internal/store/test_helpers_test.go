package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/loopc/internal/testutil"
	"github.com/roach88/loopc/internal/wasm"
)

// createTestStore creates a new store in a temp dir with sequential build IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequenceIDGenerator("build")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestModule builds the module for `x = <n>; print(x)`.
func createTestModule(n int64) *wasm.Module {
	return &wasm.Module{
		Imports: wasm.BuiltinImports(wasm.DefaultMaxMemSize),
		Exports: []wasm.Export{{Name: "main", Func: "main"}},
		Funcs: []wasm.Func{{
			ID:     "main",
			Locals: []wasm.Local{{ID: "x", Ty: wasm.I64}},
			Body: []wasm.Instr{
				&wasm.Const{Ty: wasm.I64, Value: n},
				&wasm.LocalSet{Local: "x"},
				&wasm.LocalGet{Local: "x"},
				&wasm.Call{Func: wasm.PrintI64},
			},
		}},
	}
}

func createTestRecord(t *testing.T, n int64) ModuleRecord {
	t.Helper()
	rec, err := NewModuleRecord(createTestModule(n))
	if err != nil {
		t.Fatalf("NewModuleRecord() failed: %v", err)
	}
	return rec
}
