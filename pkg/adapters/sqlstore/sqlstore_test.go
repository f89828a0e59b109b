package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/ironlog/pkg/adapters/sqlstore"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sqlstore.DB {
	t.Helper()
	db, err := sqlstore.Open(context.Background(), sqlstore.SQLite, filepath.Join(t.TempDir(), "ironlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestSQLite_Contracts(t *testing.T) {
	db := openSQLite(t)

	t.Run("Sessions", func(t *testing.T) { ports.RunSessionStoreContract(t, db.Sessions()) })
	t.Run("Catalog", func(t *testing.T) { ports.RunExerciseCatalogContract(t, db) })
	t.Run("Templates", func(t *testing.T) { ports.RunTemplateRepositoryContract(t, db) })
	t.Run("Archive", func(t *testing.T) { ports.RunExecutionArchiveContract(t, db) })
}

func TestSQLite_MigrateTwice(t *testing.T) {
	db := openSQLite(t)
	assert.NoError(t, db.Migrate(), "an up-to-date schema is not an error")
}

func TestSQLite_RejectsInvalidTemplate(t *testing.T) {
	db := openSQLite(t)
	err := db.SaveTemplate(context.Background(), &domain.Template{
		ID: "bad", UserID: "alice", Slots: []domain.Slot{domain.Combined("row", "row")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]sqlstore.Dialect{
		"":           sqlstore.SQLite,
		"sqlite3":    sqlstore.SQLite,
		"PostgreSQL": sqlstore.Postgres,
		"pgx":        sqlstore.Postgres,
	} {
		got, err := sqlstore.ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := sqlstore.ParseDialect("oracle")
	assert.Error(t, err)
}
