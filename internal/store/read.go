package store

import (
	"context"
	"database/sql"
	"fmt"
)

const buildColumns = `id, seq, source_hash, config_key, module_hash, error_code, error_message, file`

// LookupBuild returns the most recent build for a source hash and
// configuration key, failed builds included.
// Returns sql.ErrNoRows if the pair was never built.
func (s *Store) LookupBuild(ctx context.Context, sourceHash, configKey string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		WHERE source_hash = ? AND config_key = ?
		ORDER BY seq DESC
		LIMIT 1
	`, sourceHash, configKey)
	return scanBuild(row)
}

// ReadBuild retrieves a single build by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadBuild(ctx context.Context, id string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		WHERE id = ?
	`, id)
	return scanBuild(row)
}

// ReadModule retrieves a stored module by hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadModule(ctx context.Context, hash string) (ModuleRecord, error) {
	var rec ModuleRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, canonical_json, wat, local_count, instr_count
		FROM modules
		WHERE hash = ?
	`, hash).Scan(&rec.Hash, &rec.CanonicalJSON, &rec.WAT, &rec.LocalCount, &rec.InstrCount)
	if err != nil {
		return ModuleRecord{}, err
	}
	return rec, nil
}

// ListBuilds returns builds in log order: ORDER BY seq ASC, id ASC COLLATE BINARY.
// A limit of zero or less returns every build.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]Build, error) {
	query := `
		SELECT ` + buildColumns + `
		FROM builds
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := []Build{}
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (Build, error) {
	var (
		b          Build
		moduleHash sql.NullString
	)
	err := row.Scan(&b.ID, &b.Seq, &b.SourceHash, &b.ConfigKey, &moduleHash, &b.ErrorCode, &b.ErrorMessage, &b.File)
	if err != nil {
		return Build{}, err
	}
	b.ModuleHash = moduleHash.String
	return b, nil
}
