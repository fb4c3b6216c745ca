package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")
	suiteFile    = filepath.Join("..", "harness", "testdata", "suites", "basics.md")
	goldenDir    = filepath.Join("..", "harness", "testdata", "golden")
)

func newTest(format string) *cobra.Command {
	return NewTestCommand(&RootOptions{Format: format})
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(newTest("text"))
	require.Error(t, err)
}

func TestTestCommandNonExistentPath(t *testing.T) {
	out, err := execute(newTest("text"), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "path not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(newTest("text"), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, err := execute(newTest("json"), t.TempDir())
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(0), data["total"])
}

func TestTestCommandScenarios(t *testing.T) {
	out, err := execute(newTest("text"), scenariosDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ count_to_three")
	assert.Contains(t, out, "9 passed, 0 failed, 9 total")
}

func TestTestCommandSuiteAndScenarios(t *testing.T) {
	out, err := execute(newTest("json"), scenariosDir, suiteFile)
	require.NoError(t, err, out)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, float64(17), data["total"])
	assert.Equal(t, float64(17), data["passed"])
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(newTest("json"), scenariosDir, "--filter", "short_circuit_*")
	require.NoError(t, err, out)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, float64(2), data["total"])
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := execute(newTest("text"), scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`name: wrong
program:
  stmts:
    - expr: {call: {name: print, args: [{int: 1}]}}
expect:
  output: ["2"]
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))

	out, err := execute(newTest("text"), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "0 passed, 2 failed, 2 total")
}

func TestTestCommandGolden(t *testing.T) {
	out, err := execute(newTest("text"), scenariosDir, "--golden", goldenDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "9 passed")
}

func TestTestCommandGoldenUpdate(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(newTest("text"), scenariosDir, "--golden", dir, "--update")
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "count_to_three.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(goldenDir, "count_to_three.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	// Scenarios that fail to compile have no module text.
	assert.NoFileExists(t, filepath.Join(dir, "unknown_function.golden"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "count_to_three.golden"), []byte("stale\n"), 0o644))
	out, err := execute(newTest("text"), scenariosDir, "--golden", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandUpdateRequiresGolden(t *testing.T) {
	_, err := execute(newTest("text"), scenariosDir, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	for _, name := range []string{"a.yaml", "b.yml", "suite.md", "notes.txt", filepath.Join("nested", "c.yaml")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files, err := findScenarioFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yml"),
		filepath.Join(dir, "nested", "c.yaml"),
		filepath.Join(dir, "suite.md"),
	}, files)

	single, err := findScenarioFiles(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Len(t, single, 1)
}

func TestGoldenFilePath(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"count_to_three", "count_to_three.golden"},
		{"print literal", "print_literal.golden"},
		{"If / Else!", "if_else.golden"},
	}
	for _, tt := range tests {
		assert.Equal(t, filepath.Join("g", tt.want), goldenFilePath("g", tt.name))
	}
}
