package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "loopc", cmd.Use)
	assert.Contains(t, cmd.Long, "WebAssembly")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "check", "run", "test", "builds"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestBuildFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"compile", "check", "run"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			lang := sub.Flags().Lookup("lang")
			require.NotNil(t, lang)
			assert.Equal(t, "loop", lang.DefValue)

			maxMem := sub.Flags().Lookup("max-mem")
			require.NotNil(t, maxMem)
			assert.Equal(t, "100", maxMem.DefValue)

			require.NotNil(t, sub.Flags().Lookup("cache"))
		})
	}
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	emitFlag := compileCmd.Flags().Lookup("emit")
	require.NotNil(t, emitFlag)
	assert.Equal(t, "wat", emitFlag.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	require.NotNil(t, runCmd.Flags().Lookup("input"))
	stepsFlag := runCmd.Flags().Lookup("max-steps")
	require.NotNil(t, stepsFlag)
	assert.Equal(t, "10000000", stepsFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	path := writeProgram(t, "prog.yaml", countProgram)

	_, err := execute(NewRootCommand(), "compile", path, "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootVerboseInstallsLogger(t *testing.T) {
	path := writeProgram(t, "prog.yaml", countProgram)

	cmd := NewRootCommand()
	stderr := &bytes.Buffer{}
	cmd.SetErr(stderr)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"compile", path, "--verbose"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stderr.String(), "level=DEBUG")
	assert.Contains(t, stderr.String(), "msg=compiled")
}
