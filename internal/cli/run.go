package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/loopc/internal/compiler"
	"github.com/roach88/loopc/internal/machine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	BuildOptions
	Input    string // input file; stdin when empty
	MaxSteps int
}

// RunResult is the JSON payload of a finished run.
type RunResult struct {
	File       string   `json:"file"`
	ModuleHash string   `json:"module_hash"`
	Output     []string `json:"output"`
	Steps      int      `json:"steps"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Compile a program and execute it",
		Long: `Compile a program and execute the resulting module on the reference
machine. print builtins write one value per line to stdout; input builtins
read one integer per line from --input, or stdin when it is not given.

Example:
  loopc run prog.cue
  echo 5 | loopc run prog.yaml
  loopc run prog.cue --input numbers.txt --max-steps 10000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(opts, args[0], cmd)
		},
	}

	opts.BuildOptions.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Input, "input", "", "file to read program input from (default stdin)")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", machine.DefaultMaxSteps, "instruction quota (0 disables)")

	return cmd
}

func runProgram(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := opts.Logger()

	if opts.MaxSteps < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag, "--max-steps must not be negative", nil)
	}

	in := cmd.InOrStdin()
	if opts.Input != "" {
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			return reportError(formatter, fmt.Errorf("reading input: %w", err))
		}
		in = strings.NewReader(string(data))
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := compileFile(ctx, logger, path, opts.BuildOptions, true)
	if err != nil {
		return reportError(formatter, err)
	}
	formatter.VerboseLog("Compiled %s (module %s)", path, b.Record.Hash)

	// JSON output must stay a single document, so program output is
	// captured and reported in the payload.
	var captured bytes.Buffer
	var out io.Writer = formatter.Writer
	if opts.Format == "json" {
		out = &captured
	}

	m := machine.New(machine.WithMaxSteps(opts.MaxSteps), machine.WithLogger(logger))
	res, err := m.Run(ctx, b.Module, compiler.ExportName, machine.NewStdHost(in, out))
	if err != nil {
		logger.Debug("run failed", "file", path, "error", err)
		return reportError(formatter, err)
	}
	logger.Debug("run finished", "file", path, "steps", res.Steps)
	formatter.VerboseLog("Executed %d instruction(s)", res.Steps)

	if opts.Format == "json" {
		return formatter.Success(RunResult{
			File:       path,
			ModuleHash: b.Record.Hash,
			Output:     outputLines(captured.String()),
			Steps:      res.Steps,
		})
	}
	return nil
}

func outputLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
