package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"risklo/internal/storage"
	"risklo/internal/storage/migrations"
	"risklo/internal/storage/sqlite"
	"risklo/internal/storage/storagetest"
)

func openStore(t *testing.T) storage.AnalysisStore {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "risklo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db))
	// Idempotent.
	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db))

	return sqlite.NewAnalysisStore(db)
}

func TestAnalysisStore(t *testing.T) {
	storagetest.RunAnalysisStore(t, openStore)
}

func TestAnalysisStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "risklo.db")

	db, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db))
	require.NoError(t, sqlite.NewAnalysisStore(db).Insert(ctx, storagetest.Record("a1", "", "Alpha", 1)))
	require.NoError(t, db.Close())

	db, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	got, err := sqlite.NewAnalysisStore(db).GetByID(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "Alpha", got.SheetName)
}
