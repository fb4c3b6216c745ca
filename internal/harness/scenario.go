package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/loopc/internal/ast"
	"github.com/roach88/loopc/internal/compiler"
	"github.com/roach88/loopc/internal/source"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Lang selects the capability set: "var" or "loop" (default).
	Lang string `yaml:"lang,omitempty"`

	// MaxMem overrides the memory import limit, in pages.
	MaxMem uint32 `yaml:"max_mem,omitempty"`

	// Program is an inline AST document (see package source).
	Program any `yaml:"program,omitempty"`

	// ProgramFile is a path to a .cue, .yaml, .yml or .json program.
	// Resolved relative to the scenario file location.
	ProgramFile string `yaml:"program_file,omitempty"`

	// Input is fed to the program's standard input.
	Input string `yaml:"input,omitempty"`

	// Expect describes the observable outcome.
	Expect Expect `yaml:"expect"`

	// Assertions validate the emitted instruction trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect specifies the expected outcome of compiling and running a program.
type Expect struct {
	// Output lists printed lines in order. Nil means "don't check";
	// an empty list means nothing may be printed.
	Output []string `yaml:"output"`

	// Error is a substring of the expected compile or runtime error, such as
	// "E201" or "UnknownFunction". Empty means the program must succeed.
	Error string `yaml:"error,omitempty"`

	// Locals are expected final local values. Integers compare against i64
	// locals, booleans against i32 locals.
	Locals map[string]any `yaml:"locals,omitempty"`
}

// Assertion validates the instruction trace or the module shape.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check an op (with optional arg) is emitted
	// - "trace_order": Check ops appear in order
	// - "trace_count": Check an op is emitted exactly N times
	// - "local_type": Check a local's declared width
	Type string `yaml:"type"`

	// Op is the instruction mnemonic (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Arg is the immediate operand to match (trace_contains, trace_count).
	Arg string `yaml:"arg,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Ops is the expected op order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Local and Ty name a local and its width (local_type).
	Local string `yaml:"local,omitempty"`
	Ty    string `yaml:"ty,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertLocalType     = "local_type"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving program_file relative to
// basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.ProgramFile != "" && !filepath.IsAbs(scenario.ProgramFile) && basePath != "" {
		scenario.ProgramFile = filepath.Join(basePath, scenario.ProgramFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarioDir loads every *.yaml and *.yml scenario in dir, sorted by
// file name.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Config returns the compiler configuration the scenario asks for.
func (s *Scenario) Config() (compiler.Config, error) {
	cfg := compiler.DefaultConfig()
	caps, err := compiler.ParseLanguage(s.Lang)
	if err != nil {
		return compiler.Config{}, err
	}
	cfg.Capabilities = caps
	if s.MaxMem > 0 {
		cfg.MaxMemSize = s.MaxMem
	}
	return cfg, nil
}

// LoadProgram decodes the scenario program. The returned bytes are the
// source document used for hashing.
func (s *Scenario) LoadProgram() (*ast.Module, []byte, error) {
	if s.ProgramFile != "" {
		return source.LoadFile(s.ProgramFile)
	}
	src, err := yaml.Marshal(s.Program)
	if err != nil {
		return nil, nil, fmt.Errorf("encode inline program: %w", err)
	}
	m, err := source.Decode(s.Name, s.Program)
	if err != nil {
		return nil, nil, err
	}
	return m, src, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	switch {
	case s.Program == nil && s.ProgramFile == "":
		return fmt.Errorf("one of program or program_file is required")
	case s.Program != nil && s.ProgramFile != "":
		return fmt.Errorf("program and program_file are mutually exclusive")
	}

	if s.ProgramFile != "" {
		if _, err := os.Stat(s.ProgramFile); os.IsNotExist(err) {
			return fmt.Errorf("program file not found: %s", s.ProgramFile)
		}
	}

	if _, err := compiler.ParseLanguage(s.Lang); err != nil {
		return err
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertLocalType:
		if a.Local == "" || a.Ty == "" {
			return fmt.Errorf("assertions[%d]: local and ty are required for local_type", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
