package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModuleRecord(t *testing.T) {
	rec := createTestRecord(t, 5)

	assert.Len(t, rec.Hash, 64)
	assert.Equal(t, 1, rec.LocalCount)
	assert.Equal(t, 4, rec.InstrCount)
	assert.Contains(t, rec.WAT, "call $print_i64")
	assert.Contains(t, string(rec.CanonicalJSON), `"i64.const"`)

	again := createTestRecord(t, 5)
	assert.Equal(t, rec, again, "records of equal modules must be identical")

	other := createTestRecord(t, 6)
	assert.NotEqual(t, rec.Hash, other.Hash)
}

func TestWriteModule_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	rec := createTestRecord(t, 5)

	require.NoError(t, s.WriteModule(ctx, rec))

	got, err := s.ReadModule(ctx, rec.Hash)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestWriteModule_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	rec := createTestRecord(t, 5)

	require.NoError(t, s.WriteModule(ctx, rec))
	require.NoError(t, s.WriteModule(ctx, rec))

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM modules").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWriteModule_EmptyHash(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteModule(context.Background(), ModuleRecord{})
	assert.Error(t, err)
}

func TestReadModule_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadModule(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRecordBuild_AssignsIDAndSeq(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	rec := createTestRecord(t, 1)
	require.NoError(t, s.WriteModule(ctx, rec))

	b1, err := s.RecordBuild(ctx, Build{SourceHash: "src-a", ConfigKey: "lang=loop;max_mem=100", ModuleHash: rec.Hash})
	require.NoError(t, err)
	assert.Equal(t, "build-0001", b1.ID)
	assert.Equal(t, int64(1), b1.Seq)
	assert.True(t, b1.OK())

	b2, err := s.RecordBuild(ctx, Build{SourceHash: "src-b", ConfigKey: "lang=loop;max_mem=100", ErrorCode: "E201", ErrorMessage: "unknown function"})
	require.NoError(t, err)
	assert.Equal(t, "build-0002", b2.ID)
	assert.Equal(t, int64(2), b2.Seq)
	assert.False(t, b2.OK())

	got, err := s.ReadBuild(ctx, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, b2, got)
}

func TestRecordBuild_KeepsGivenID(t *testing.T) {
	s := createTestStore(t)
	b, err := s.RecordBuild(context.Background(), Build{ID: "custom", SourceHash: "s", ConfigKey: "c", ErrorCode: "E301"})
	require.NoError(t, err)
	assert.Equal(t, "custom", b.ID)
}

func TestRecordBuild_RequiresExactlyOneOutcome(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.RecordBuild(ctx, Build{SourceHash: "s", ConfigKey: "c"})
	assert.Error(t, err)

	_, err = s.RecordBuild(ctx, Build{SourceHash: "s", ConfigKey: "c", ModuleHash: "h", ErrorCode: "E201"})
	assert.Error(t, err)
}

func TestRecordBuild_UnknownModule(t *testing.T) {
	s := createTestStore(t)
	_, err := s.RecordBuild(context.Background(), Build{SourceHash: "s", ConfigKey: "c", ModuleHash: "nope"})
	assert.Error(t, err)
}

func TestRecordSuccess(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	rec := createTestRecord(t, 3)

	b, err := s.RecordSuccess(ctx, Build{SourceHash: "src", ConfigKey: "cfg", File: "prog.cue"}, rec)
	require.NoError(t, err)
	assert.Equal(t, rec.Hash, b.ModuleHash)

	stored, err := s.ReadBuild(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, stored)
	assert.Equal(t, "prog.cue", stored.File)

	got, err := s.ReadModule(ctx, b.ModuleHash)
	require.NoError(t, err)
	assert.Equal(t, rec.WAT, got.WAT)
}

func TestLookupBuild_ReturnsLatest(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	rec := createTestRecord(t, 1)

	_, err := s.RecordBuild(ctx, Build{SourceHash: "src", ConfigKey: "cfg", ErrorCode: "E201", ErrorMessage: "first"})
	require.NoError(t, err)
	want, err := s.RecordSuccess(ctx, Build{SourceHash: "src", ConfigKey: "cfg"}, rec)
	require.NoError(t, err)
	_, err = s.RecordBuild(ctx, Build{SourceHash: "src", ConfigKey: "other", ErrorCode: "E202"})
	require.NoError(t, err)

	got, err := s.LookupBuild(ctx, "src", "cfg")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLookupBuild_Miss(t *testing.T) {
	s := createTestStore(t)
	_, err := s.LookupBuild(context.Background(), "src", "cfg")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestListBuilds_Ordered(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	builds, err := s.ListBuilds(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, builds)
	assert.Empty(t, builds)

	for _, code := range []string{"E201", "E202", "E301"} {
		_, err := s.RecordBuild(ctx, Build{SourceHash: "s", ConfigKey: "c", ErrorCode: code})
		require.NoError(t, err)
	}

	builds, err = s.ListBuilds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, builds, 3)
	for i, b := range builds {
		assert.Equal(t, int64(i+1), b.Seq)
	}
	assert.Equal(t, "E301", builds[2].ErrorCode)

	limited, err := s.ListBuilds(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, builds[:2], limited)
}

func TestSeqSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	first, err := s.RecordBuild(ctx, Build{SourceHash: "s", ConfigKey: "c", ErrorCode: "E201"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	second, err := s.RecordBuild(ctx, Build{SourceHash: "s", ConfigKey: "c", ErrorCode: "E201"})
	require.NoError(t, err)

	assert.Equal(t, first.Seq+1, second.Seq)
}

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, id, UUIDv7Generator{}.Generate())
}
