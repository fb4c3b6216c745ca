package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WriteModule inserts a compiled module.
// Uses ON CONFLICT(hash) DO NOTHING - modules are content addressed, so a
// second write of the same hash is a no-op.
func (s *Store) WriteModule(ctx context.Context, rec ModuleRecord) error {
	if rec.Hash == "" {
		return errors.New("write module: empty hash")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO modules
		(hash, canonical_json, wat, local_count, instr_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		rec.Hash,
		rec.CanonicalJSON,
		rec.WAT,
		rec.LocalCount,
		rec.InstrCount,
	)
	if err != nil {
		return fmt.Errorf("write module: %w", err)
	}
	return nil
}

// RecordBuild appends a build to the log and returns it with its ID and seq
// filled in. An ID already set on b is kept.
//
// Note: a successful build's module must already be stored (foreign key
// constraint).
func (s *Store) RecordBuild(ctx context.Context, b Build) (Build, error) {
	if b.OK() == (b.ErrorCode != "") {
		return Build{}, fmt.Errorf("record build: exactly one of module hash and error code must be set")
	}
	if b.ID == "" {
		b.ID = s.ids.Generate()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Build{}, fmt.Errorf("record build: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM builds`).Scan(&b.Seq); err != nil {
		return Build{}, fmt.Errorf("record build: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds
		(id, seq, source_hash, config_key, module_hash, error_code, error_message, file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID,
		b.Seq,
		b.SourceHash,
		b.ConfigKey,
		nullString(b.ModuleHash),
		b.ErrorCode,
		b.ErrorMessage,
		b.File,
	)
	if err != nil {
		return Build{}, fmt.Errorf("record build: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Build{}, fmt.Errorf("record build: commit: %w", err)
	}
	return b, nil
}

// RecordSuccess stores rec and appends b as a successful build pointing at
// it, in one call. The module hash of b is taken from rec.
func (s *Store) RecordSuccess(ctx context.Context, b Build, rec ModuleRecord) (Build, error) {
	if err := s.WriteModule(ctx, rec); err != nil {
		return Build{}, err
	}
	b.ModuleHash = rec.Hash
	return s.RecordBuild(ctx, b)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
