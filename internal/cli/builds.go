package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/loopc/internal/store"
)

// BuildsOptions holds flags for the builds command.
type BuildsOptions struct {
	*RootOptions
	Cache string // path to the SQLite build cache
	Limit int    // maximum number of builds to list; 0 lists all
	ID    string // show a single build
}

// BuildEntry is one recorded build.
type BuildEntry struct {
	ID           string `json:"id"`
	Seq          int64  `json:"seq"`
	File         string `json:"file,omitempty"`
	SourceHash   string `json:"source_hash"`
	ConfigKey    string `json:"config_key"`
	OK           bool   `json:"ok"`
	ModuleHash   string `json:"module_hash,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewBuildsCommand creates the builds command.
func NewBuildsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "builds",
		Short: "List the builds recorded in a build cache",
		Long: `List the compile attempts recorded in a build cache, oldest first.
With --id, show a single build.

Examples:
  loopc builds --cache ./loopc.db
  loopc builds --cache ./loopc.db --limit 10 --format json
  loopc builds --cache ./loopc.db --id 0192f1c4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuilds(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cache, "cache", "", "path to SQLite build cache (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of builds to list (0 lists all)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show the build with this ID")

	return cmd
}

func runBuilds(opts *BuildsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Cache == "" {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag, "--cache is required", nil)
	}
	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag, "--limit must not be negative", nil)
	}
	// Opening creates the database, so a missing cache is reported first.
	if _, err := os.Stat(opts.Cache); err != nil {
		return reportError(formatter, err)
	}

	st, err := store.Open(opts.Cache)
	if err != nil {
		return reportError(formatter, &cacheError{err: err})
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.Logger().Error("error closing build cache", "error", closeErr)
		}
	}()

	if opts.ID != "" {
		b, err := st.ReadBuild(cmd.Context(), opts.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no build with id %s", opts.ID), nil)
		}
		if err != nil {
			return reportError(formatter, &cacheError{err: err})
		}
		entry := buildEntry(b)
		if opts.Format == "json" {
			return formatter.Success(entry)
		}
		printBuildDetail(formatter, entry)
		return nil
	}

	builds, err := st.ListBuilds(cmd.Context(), opts.Limit)
	if err != nil {
		return reportError(formatter, &cacheError{err: err})
	}
	entries := make([]BuildEntry, 0, len(builds))
	for _, b := range builds {
		entries = append(entries, buildEntry(b))
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No builds recorded.")
		return nil
	}
	for _, e := range entries {
		printBuildLine(formatter, e)
	}
	return nil
}

func buildEntry(b store.Build) BuildEntry {
	return BuildEntry{
		ID:           b.ID,
		Seq:          b.Seq,
		File:         b.File,
		SourceHash:   b.SourceHash,
		ConfigKey:    b.ConfigKey,
		OK:           b.OK(),
		ModuleHash:   b.ModuleHash,
		ErrorCode:    b.ErrorCode,
		ErrorMessage: b.ErrorMessage,
	}
}

func displayFile(e BuildEntry) string {
	if e.File == "" {
		return "-"
	}
	return e.File
}

func printBuildLine(formatter *OutputFormatter, e BuildEntry) {
	if e.OK {
		fmt.Fprintf(formatter.Writer, "#%d %s ✓ %s module %s\n", e.Seq, e.ID, displayFile(e), e.ModuleHash)
		return
	}
	fmt.Fprintf(formatter.Writer, "#%d %s ✗ %s [%s]\n", e.Seq, e.ID, displayFile(e), e.ErrorCode)
}

func printBuildDetail(formatter *OutputFormatter, e BuildEntry) {
	w := formatter.Writer
	fmt.Fprintf(w, "build   %s (#%d)\n", e.ID, e.Seq)
	fmt.Fprintf(w, "file    %s\n", displayFile(e))
	fmt.Fprintf(w, "source  %s\n", e.SourceHash)
	fmt.Fprintf(w, "config  %s\n", e.ConfigKey)
	if e.OK {
		fmt.Fprintf(w, "module  %s\n", e.ModuleHash)
		return
	}
	fmt.Fprintf(w, "error   [%s] %s\n", e.ErrorCode, e.ErrorMessage)
}
