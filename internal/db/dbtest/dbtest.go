// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalboard/internal/db"
)

// New returns a migrated SQLite database in the test's temp dir, closed on cleanup.
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "goals.db") + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	database, err := db.Init(context.Background(), db.DriverSQLite, dsn, db.Pool{MaxOpen: 1})
	require.NoError(t, err)

	t.Cleanup(func() {
		database.Close()
	})

	err = db.RunMigrations(database.DB, db.DriverSQLite)
	require.NoError(t, err)

	return database
}
