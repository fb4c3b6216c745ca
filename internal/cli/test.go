package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/loopc/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter   string // scenario filter (glob pattern on the scenario name)
	Golden   string // directory of WAT golden files
	Update   bool   // regenerate golden files
	MaxSteps int
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Source string   `json:"source"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// loadedScenario is a scenario together with the file it came from, or the
// error that kept the file from loading.
type loadedScenario struct {
	source   string
	scenario *harness.Scenario
	err      error
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <path>...",
		Short: "Run conformance scenarios",
		Long: `Run conformance scenarios through the compiler and reference machine.

Paths may be YAML scenario files, Markdown suites ("## Test: name" sections
with program/input/output/error blocks) or directories, which are searched
recursively for both.

With --golden, the WAT of each compiled scenario is compared against
<dir>/<name>.golden; --update rewrites those files instead.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  loopc test ./scenarios
  loopc test ./suites/basics.md --filter "print*"
  loopc test ./scenarios --golden ./golden --update
  loopc test ./scenarios --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "directory of WAT golden files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", harness.DefaultMaxSteps, "per-scenario instruction quota")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Update && opts.Golden == "" {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag, "--update requires --golden", nil)
	}
	if _, err := filepath.Match(opts.Filter, ""); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag, fmt.Sprintf("invalid filter pattern: %v", err), nil)
	}

	var files []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("path not found: %s", p), nil)
		}
		found, err := findScenarioFiles(p)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("failed to find scenarios: %v", err), nil)
		}
		files = append(files, found...)
	}

	var scenarios []loadedScenario
	for _, file := range files {
		formatter.VerboseLog("Loading %s", file)
		scenarios = append(scenarios, loadScenarios(file)...)
	}
	scenarios = filterScenarios(scenarios, opts.Filter)

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarios)),
		Total:     len(scenarios),
	}
	if len(scenarios) == 0 {
		if opts.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	h := harness.New(harness.WithLogger(opts.Logger()), harness.WithMaxSteps(opts.MaxSteps))
	for _, ls := range scenarios {
		res := runScenario(cmd, h, ls, opts)
		result.Scenarios = append(result.Scenarios, res)
		if res.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		if opts.Format != "json" {
			printScenarioResult(formatter, res)
		}
	}

	if opts.Format == "json" {
		if result.Failed > 0 {
			if err := formatter.Error(ErrCodeScenario, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles returns the scenario and suite files under path. A
// file argument is returned as is.
func findScenarioFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml", ".md":
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// loadScenarios reads one scenario file or Markdown suite.
func loadScenarios(file string) []loadedScenario {
	if strings.EqualFold(filepath.Ext(file), ".md") {
		suite, err := harness.LoadSuite(file)
		if err != nil {
			return []loadedScenario{{source: file, err: err}}
		}
		out := make([]loadedScenario, 0, len(suite))
		for _, s := range suite {
			out = append(out, loadedScenario{source: file, scenario: s})
		}
		return out
	}

	s, err := harness.LoadScenario(file)
	return []loadedScenario{{source: file, scenario: s, err: err}}
}

// filterScenarios keeps scenarios whose name matches pattern. Load
// failures are always kept so they are reported.
func filterScenarios(in []loadedScenario, pattern string) []loadedScenario {
	if pattern == "" {
		return in
	}
	out := in[:0]
	for _, ls := range in {
		if ls.err != nil {
			out = append(out, ls)
			continue
		}
		if ok, _ := filepath.Match(pattern, ls.scenario.Name); ok {
			out = append(out, ls)
		}
	}
	return out
}

// runScenario executes a single scenario and returns the result.
func runScenario(cmd *cobra.Command, h *harness.Harness, ls loadedScenario, opts *TestOptions) ScenarioResult {
	if ls.err != nil {
		return ScenarioResult{
			Name:   filepath.Base(ls.source),
			Source: ls.source,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", ls.err)},
		}
	}

	res := ScenarioResult{Name: ls.scenario.Name, Source: ls.source}
	result, err := h.Run(cmd.Context(), ls.scenario)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return res
	}
	res.Pass = result.Pass
	res.Errors = result.Errors

	if opts.Golden == "" || result.Module == nil {
		return res
	}

	goldenPath := goldenFilePath(opts.Golden, ls.scenario.Name)
	if opts.Update {
		if err := updateGoldenFile(goldenPath, result.WAT); err != nil {
			res.Pass = false
			res.Errors = append(res.Errors, fmt.Sprintf("failed to update golden file: %v", err))
		}
		return res
	}

	match, err := compareWithGolden(goldenPath, result.WAT)
	switch {
	case os.IsNotExist(err):
		// No golden file - expectation-based validation only
	case err != nil:
		res.Pass = false
		res.Errors = append(res.Errors, fmt.Sprintf("golden comparison failed: %v", err))
	case !match:
		res.Pass = false
		res.Errors = append(res.Errors, "module text does not match golden file (run with --update to regenerate)")
	}
	return res
}

func printScenarioResult(formatter *OutputFormatter, res ScenarioResult) {
	if res.Pass {
		fmt.Fprintf(formatter.Writer, "✓ %s\n", res.Name)
		return
	}
	fmt.Fprintf(formatter.Writer, "✗ %s\n", res.Name)
	for _, e := range res.Errors {
		fmt.Fprintf(formatter.Writer, "  %s\n", e)
	}
}

// goldenFilePath returns the golden file of a scenario: its name lowercased
// with runs of non-alphanumerics replaced by underscores.
func goldenFilePath(dir, name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return filepath.Join(dir, b.String()+".golden")
}

// updateGoldenFile writes the current module text as the golden file.
func updateGoldenFile(goldenPath, wat string) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, []byte(wat), 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden compares module text against the golden file.
func compareWithGolden(goldenPath, wat string) (bool, error) {
	golden, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, err
	}
	return string(golden) == wat, nil
}
