package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/loopc/internal/compiler"
	"github.com/roach88/loopc/internal/machine"
	"github.com/roach88/loopc/internal/source"
	"github.com/roach88/loopc/internal/store"
	"github.com/roach88/loopc/internal/tycheck"
	"github.com/roach88/loopc/internal/wasm"
)

// CLI error codes (E001-E099). Errors raised by the pipeline keep their own
// codes (E1xx module validation, E2xx compiler, E3xx types, E4xx sources).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Path not found
	ErrCodeBadFlag     = "E003" // Invalid flag value
	ErrCodeCache       = "E004" // Build cache unavailable or corrupt
	ErrCodeWriteFailed = "E005" // File write error
	ErrCodeRuntime     = "E006" // Program trapped or exceeded its step quota
	ErrCodeScenario    = "E007" // Scenario or suite could not be loaded
)

// BuildOptions holds the flags shared by commands that compile a program.
type BuildOptions struct {
	Lang   string
	MaxMem uint32
	Cache  string // path to the SQLite build cache; empty disables caching
}

func (o *BuildOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Lang, "lang", "loop", "language level (var|loop)")
	cmd.Flags().Uint32Var(&o.MaxMem, "max-mem", wasm.DefaultMaxMemSize, "maximum linear memory in 64KiB pages")
	cmd.Flags().StringVar(&o.Cache, "cache", "", "path to SQLite build cache")
}

// Config translates the flags into a compiler configuration.
func (o BuildOptions) Config() (compiler.Config, error) {
	caps, err := compiler.ParseLanguage(o.Lang)
	if err != nil {
		return compiler.Config{}, &flagError{err: err}
	}
	if o.MaxMem == 0 {
		return compiler.Config{}, &flagError{err: errors.New("--max-mem must be at least 1")}
	}
	return compiler.Config{MaxMemSize: o.MaxMem, Capabilities: caps}, nil
}

// Build is the outcome of compiling one program file.
type Build struct {
	File       string
	SourceHash string
	ConfigKey  string
	BuildID    string // empty without a cache
	Cached     bool

	// Module is the compiled module. It is nil when the build was served
	// from the cache; Record always carries the stored form.
	Module *wasm.Module
	Record store.ModuleRecord
}

// InvalidModuleError reports a generated module that failed validation.
type InvalidModuleError struct {
	Errors []wasm.ValidationError
}

func (e *InvalidModuleError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("generated module is invalid: %s", e.Errors[0])
	}
	return fmt.Sprintf("generated module is invalid: %s (and %d more)", e.Errors[0], len(e.Errors)-1)
}

// CachedFailureError replays a failed build recorded in the cache.
type CachedFailureError struct {
	Build store.Build
}

func (e *CachedFailureError) Error() string {
	return e.Build.ErrorMessage
}

type flagError struct{ err error }

func (e *flagError) Error() string { return e.err.Error() }
func (e *flagError) Unwrap() error { return e.err }

type cacheError struct{ err error }

func (e *cacheError) Error() string { return "build cache: " + e.err.Error() }
func (e *cacheError) Unwrap() error { return e.err }

// compileFile decodes, type checks, compiles and validates the program at
// path. With a cache configured, a previous build of the same source and
// configuration is served unless fresh is set, and every new attempt is
// recorded.
func compileFile(ctx context.Context, logger *slog.Logger, path string, opts BuildOptions, fresh bool) (*Build, error) {
	cfg, err := opts.Config()
	if err != nil {
		return nil, err
	}

	prog, src, err := source.LoadFile(path)
	if err != nil {
		return nil, err
	}
	b := &Build{File: path, SourceHash: wasm.SourceHash(src), ConfigKey: cfg.Key()}
	log := logger.With("file", path, "config", b.ConfigKey)

	var st *store.Store
	if opts.Cache != "" {
		st, err = store.Open(opts.Cache)
		if err != nil {
			return nil, &cacheError{err: err}
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing build cache", "error", closeErr)
			}
		}()

		if !fresh {
			hit, err := lookupCached(ctx, st, b)
			if err != nil || hit {
				log.Debug("cache lookup", "hit", hit, "build", b.BuildID)
				return b, err
			}
		}
	}

	mod, err := compiler.CompileModule(prog, tycheck.Checker{}, cfg)
	if err == nil {
		if verrs := wasm.Validate(mod); len(verrs) > 0 {
			err = &InvalidModuleError{Errors: verrs}
		}
	}
	if err != nil {
		log.Debug("compile failed", "error", err)
		if st != nil {
			failed := store.Build{
				SourceHash:   b.SourceHash,
				ConfigKey:    b.ConfigKey,
				ErrorCode:    classify(err).Code,
				ErrorMessage: err.Error(),
				File:         b.File,
			}
			if _, recErr := st.RecordBuild(ctx, failed); recErr != nil {
				log.Warn("recording failed build", "error", recErr)
			}
		}
		return nil, err
	}

	b.Module = mod
	if b.Record, err = store.NewModuleRecord(mod); err != nil {
		return nil, err
	}
	if st != nil {
		rec, err := st.RecordSuccess(ctx, store.Build{SourceHash: b.SourceHash, ConfigKey: b.ConfigKey, File: b.File}, b.Record)
		if err != nil {
			return nil, &cacheError{err: err}
		}
		b.BuildID = rec.ID
	}
	log.Debug("compiled", "module", b.Record.Hash, "locals", b.Record.LocalCount, "instrs", b.Record.InstrCount)
	return b, nil
}

// lookupCached fills b from the latest recorded build, if any. A failed
// build is only replayed for the file it was recorded for, since its message
// carries positions inside that file.
func lookupCached(ctx context.Context, st *store.Store, b *Build) (bool, error) {
	prev, err := st.LookupBuild(ctx, b.SourceHash, b.ConfigKey)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &cacheError{err: err}
	}
	if !prev.OK() {
		if prev.File != b.File {
			return false, nil
		}
		return true, &CachedFailureError{Build: prev}
	}

	rec, err := st.ReadModule(ctx, prev.ModuleHash)
	if err != nil {
		return false, &cacheError{err: err}
	}
	b.BuildID = prev.ID
	b.Cached = true
	b.Record = rec
	return true, nil
}

// Failure is an error classified for reporting.
type Failure struct {
	Code    string
	Exit    int
	Details any
}

// classify maps pipeline errors to a reporting code and exit code.
func classify(err error) Failure {
	var (
		flagErr   *flagError
		cacheErr  *cacheError
		decodeErr *source.DecodeError
		typeErr   *tycheck.Error
		compErr   *compiler.CompileError
		invalid   *InvalidModuleError
		cached    *CachedFailureError
		trapErr   *machine.RuntimeError
		quotaErr  *machine.StepsExceededError
	)

	switch {
	case errors.As(err, &flagErr):
		return Failure{Code: ErrCodeBadFlag, Exit: ExitCommandError}
	case errors.As(err, &cacheErr):
		return Failure{Code: ErrCodeCache, Exit: ExitCommandError}
	case errors.Is(err, fs.ErrNotExist):
		return Failure{Code: ErrCodeNotFound, Exit: ExitCommandError}
	case errors.As(err, &decodeErr):
		if decodeErr.Code == source.ErrCodeFormat {
			return Failure{Code: decodeErr.Code, Exit: ExitCommandError}
		}
		return Failure{Code: decodeErr.Code, Exit: ExitFailure, Details: map[string]any{"path": decodeErr.Path, "line": decodeErr.Line}}
	case errors.As(err, &typeErr):
		return Failure{Code: typeErr.Code, Exit: ExitFailure, Details: map[string]any{"pos": typeErr.Pos.String()}}
	case errors.As(err, &compErr):
		return Failure{Code: compErr.Kind.Code(), Exit: ExitFailure, Details: map[string]any{
			"kind":    string(compErr.Kind),
			"subject": compErr.Subject,
			"pos":     compErr.Pos.String(),
		}}
	case errors.As(err, &invalid):
		return Failure{Code: invalid.Errors[0].Code, Exit: ExitFailure, Details: invalid.Errors}
	case errors.As(err, &cached):
		return Failure{Code: cached.Build.ErrorCode, Exit: ExitFailure, Details: map[string]any{"build": cached.Build.ID, "cached": true}}
	case errors.As(err, &trapErr):
		return Failure{Code: ErrCodeRuntime, Exit: ExitFailure, Details: map[string]any{"trap": string(trapErr.Code)}}
	case errors.As(err, &quotaErr):
		return Failure{Code: ErrCodeRuntime, Exit: ExitFailure, Details: map[string]any{"steps": quotaErr.Steps, "limit": quotaErr.Limit}}
	default:
		return Failure{Code: ErrCodeGeneric, Exit: ExitFailure}
	}
}

// reportError writes err through the formatter and returns the ExitError
// for the command, wrapping err so callers can still match it.
func reportError(formatter *OutputFormatter, err error) error {
	f := classify(err)
	if reportErr := formatter.Error(f.Code, err.Error(), f.Details); reportErr != nil {
		return reportErr
	}
	return WrapExitError(f.Exit, f.Code, err)
}
