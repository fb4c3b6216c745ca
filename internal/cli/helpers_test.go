package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const countProgram = `stmts:
  - assign: {target: i, value: {int: 0}}
  - while:
      cond: {binary: {op: "<", left: {var: i}, right: {int: 3}}}
      body:
        - expr: {call: {name: print, args: [{var: i}]}}
        - assign: {target: i, value: {binary: {op: "+", left: {var: i}, right: {int: 1}}}}
`

const echoProgram = `stmts:
  - assign: {target: x, value: {call: {name: input_int}}}
  - expr: {call: {name: print, args: [{binary: {op: "+", left: {var: x}, right: {int: 1}}}]}}
`

const unknownCallProgram = `stmts:
  - expr: {call: {name: launch, args: [{int: 1}]}}
`

const unboundProgram = `stmts:
  - expr: {call: {name: print, args: [{var: y}]}}
`

const spinProgram = `stmts:
  - while:
      cond: {bool: true}
      body:
        - assign: {target: x, value: {int: 1}}
`

// writeProgram writes content to name inside a fresh temp dir.
func writeProgram(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns its stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse parses a JSON CLIResponse.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}
