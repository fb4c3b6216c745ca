package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Emit formats of the compile command.
const (
	EmitWAT  = "wat"
	EmitJSON = "json"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	BuildOptions
	Output string // output file path
	Emit   string // "wat" | "json"
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	File       string `json:"file"`
	SourceHash string `json:"source_hash"`
	ModuleHash string `json:"module_hash"`
	ConfigKey  string `json:"config_key"`
	BuildID    string `json:"build_id,omitempty"`
	Cached     bool   `json:"cached"`
	Locals     int    `json:"locals"`
	Instrs     int    `json:"instrs"`
	Emit       string `json:"emit"`
	Output     string `json:"output,omitempty"`   // file written with --output
	Artifact   string `json:"artifact,omitempty"` // module text when no --output is given
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program>",
		Short: "Compile a program to WebAssembly",
		Long: `Compile a program document (.cue, .yaml, .yml or .json) to a WebAssembly
module. The module is written as WebAssembly text (--emit wat) or as its
canonical JSON encoding (--emit json).

With --cache, builds are recorded in a SQLite database keyed by the source
hash and compiler configuration, and repeated builds are served from it.

Examples:
  loopc compile prog.cue
  loopc compile prog.yaml -o prog.wat
  loopc compile prog.cue --lang var --emit json
  loopc compile prog.cue --cache ./loopc.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	opts.BuildOptions.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Emit, "emit", EmitWAT, "artifact to emit (wat|json)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if opts.Emit != EmitWAT && opts.Emit != EmitJSON {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag,
			fmt.Sprintf("invalid --emit %q: must be one of [wat json]", opts.Emit), nil)
	}

	formatter.VerboseLog("Compiling %s (lang=%s, max-mem=%d)", path, opts.Lang, opts.MaxMem)
	b, err := compileFile(cmd.Context(), opts.Logger(), path, opts.BuildOptions, false)
	if err != nil {
		return reportError(formatter, err)
	}
	if b.Cached {
		formatter.VerboseLog("Served from cache (build %s)", b.BuildID)
	}

	artifact := b.Record.WAT
	if opts.Emit == EmitJSON {
		artifact = string(b.Record.CanonicalJSON) + "\n"
	}

	result := CompilationResult{
		File:       b.File,
		SourceHash: b.SourceHash,
		ModuleHash: b.Record.Hash,
		ConfigKey:  b.ConfigKey,
		BuildID:    b.BuildID,
		Cached:     b.Cached,
		Locals:     b.Record.LocalCount,
		Instrs:     b.Record.InstrCount,
		Emit:       opts.Emit,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(artifact), 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		result.Output = opts.Output
	} else {
		result.Artifact = artifact
	}

	return outputCompileSuccess(formatter, result)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if result.Output == "" {
		_, err := fmt.Fprint(formatter.Writer, result.Artifact)
		return err
	}

	suffix := ""
	if result.Cached {
		suffix = " (cached)"
	}
	fmt.Fprintf(formatter.Writer, "✓ Compiled %s -> %s%s\n", result.File, result.Output, suffix)
	fmt.Fprintf(formatter.Writer, "  module %s\n", result.ModuleHash)
	fmt.Fprintf(formatter.Writer, "  %d local(s), %d instruction(s)\n", result.Locals, result.Instrs)
	return nil
}
