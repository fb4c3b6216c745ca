package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/loopc/internal/wasm"
)

// Capabilities is the set of language features the compiler accepts.
type Capabilities uint8

const (
	CapBooleans     Capabilities = 1 << iota // bool literals, not, comparisons
	CapControlFlow                           // if and while statements
	CapShortCircuit                          // and, or
)

// Language levels.
const (
	LangVar  Capabilities = 0
	LangLoop              = CapBooleans | CapControlFlow | CapShortCircuit
)

// Has reports whether every capability in want is enabled.
func (c Capabilities) Has(want Capabilities) bool {
	return c&want == want
}

func (c Capabilities) String() string {
	switch c {
	case LangVar:
		return "var"
	case LangLoop:
		return "loop"
	}
	var parts []string
	if c.Has(CapBooleans) {
		parts = append(parts, "booleans")
	}
	if c.Has(CapControlFlow) {
		parts = append(parts, "control-flow")
	}
	if c.Has(CapShortCircuit) {
		parts = append(parts, "short-circuit")
	}
	return strings.Join(parts, "+")
}

// ParseLanguage maps a language level name ("var" or "loop") to its
// capability set.
func ParseLanguage(name string) (Capabilities, error) {
	switch name {
	case "var":
		return LangVar, nil
	case "loop", "":
		return LangLoop, nil
	default:
		return 0, fmt.Errorf("unknown language %q: must be one of [var loop]", name)
	}
}

// Config controls module assembly. It is passed explicitly to every compile.
type Config struct {
	// MaxMemSize bounds the imported linear memory, in 64KiB pages.
	MaxMemSize uint32

	// Capabilities selects the accepted language level.
	Capabilities Capabilities
}

// DefaultConfig returns the configuration for the full language.
func DefaultConfig() Config {
	return Config{
		MaxMemSize:   wasm.DefaultMaxMemSize,
		Capabilities: LangLoop,
	}
}

// Version identifies the code generator in build cache keys. Bump it whenever
// the module generated for an unchanged program changes, so caches stop
// serving builds of an older generator.
const Version = 1

// Key identifies the configuration in build caches.
func (c Config) Key() string {
	return fmt.Sprintf("gen=%d;lang=%s;max_mem=%d", Version, c.Capabilities, c.MaxMemSize)
}
