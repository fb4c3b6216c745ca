package store

import (
	"fmt"

	"github.com/roach88/loopc/internal/wasm"
)

// ModuleRecord is a stored compiled module.
type ModuleRecord struct {
	Hash          string
	CanonicalJSON []byte
	WAT           string
	LocalCount    int
	InstrCount    int
}

// NewModuleRecord derives the stored form of m.
func NewModuleRecord(m *wasm.Module) (ModuleRecord, error) {
	canon, err := wasm.MarshalCanonical(m)
	if err != nil {
		return ModuleRecord{}, fmt.Errorf("module record: %w", err)
	}
	hash, err := wasm.ModuleHash(m)
	if err != nil {
		return ModuleRecord{}, fmt.Errorf("module record: %w", err)
	}
	text, err := wasm.Text(m)
	if err != nil {
		return ModuleRecord{}, fmt.Errorf("module record: %w", err)
	}

	rec := ModuleRecord{Hash: hash, CanonicalJSON: canon, WAT: text}
	for _, fn := range m.Funcs {
		rec.LocalCount += len(fn.Locals)
		rec.InstrCount += wasm.Count(fn.Body)
	}
	return rec, nil
}

// Build is one compile attempt. A successful build names its module;
// a failed one carries the error code and message instead.
type Build struct {
	ID           string
	Seq          int64
	SourceHash   string
	ConfigKey    string
	ModuleHash   string
	ErrorCode    string
	ErrorMessage string

	// File is the program path the build was compiled from. Failure
	// messages carry positions inside it.
	File string
}

// OK reports whether the build produced a module.
func (b Build) OK() bool {
	return b.ModuleHash != ""
}
