package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	BuildOptions
}

// CheckResult reports one checked program.
type CheckResult struct {
	File       string    `json:"file"`
	OK         bool      `json:"ok"`
	ModuleHash string    `json:"module_hash,omitempty"`
	Error      *CLIError `json:"error,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <program>...",
		Short: "Type check and compile programs without emitting output",
		Long: `Check one or more programs: decode, type check, compile and validate
the generated module. Every program is checked; the command fails if any
of them is rejected.

Exit codes:
  0 - All programs valid
  1 - One or more programs rejected
  2 - Command error (missing files, bad flags)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args, cmd)
		},
	}

	opts.BuildOptions.addFlags(cmd)

	return cmd
}

func runCheck(opts *CheckOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := opts.Config(); err != nil {
		return reportError(formatter, err)
	}

	results := make([]CheckResult, 0, len(paths))
	exit := ExitSuccess
	for _, path := range paths {
		formatter.VerboseLog("Checking %s", path)
		b, err := compileFile(cmd.Context(), opts.Logger(), path, opts.BuildOptions, false)
		if err != nil {
			f := classify(err)
			exit = max(exit, f.Exit)
			results = append(results, CheckResult{
				File:  path,
				Error: &CLIError{Code: f.Code, Message: err.Error(), Details: f.Details},
			})
			continue
		}
		results = append(results, CheckResult{File: path, OK: true, ModuleHash: b.Record.Hash})
	}

	if opts.Format == "json" {
		var err error
		if exit == ExitSuccess {
			err = formatter.Success(results)
		} else {
			err = formatter.Error(results[firstFailure(results)].Error.Code, "check failed", results)
		}
		if err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.OK {
				fmt.Fprintf(formatter.Writer, "✓ %s\n", r.File)
				continue
			}
			fmt.Fprintf(formatter.Writer, "✗ %s\n", r.File)
			fmt.Fprintf(formatter.Writer, "  [%s] %s\n", r.Error.Code, r.Error.Message)
		}
	}

	if exit != ExitSuccess {
		return NewExitError(exit, "check failed")
	}
	return nil
}

func firstFailure(results []CheckResult) int {
	for i, r := range results {
		if !r.OK {
			return i
		}
	}
	return 0
}
