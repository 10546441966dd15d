// Package testutil builds throwaway stores for tests.
package testutil

import (
	"database/sql"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todotree/internal/config"
	"github.com/Kerhoff/todotree/internal/repository/sqlrepo"
)

// Logger returns a logger that discards its output.
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// NewStore opens a private in-memory SQLite database with the schema
// applied. The database is closed when the test ends.
func NewStore(t testing.TB) (*sqlrepo.Store, *config.Database) {
	t.Helper()
	db, err := config.NewDatabase("sqlite://:memory:", Logger())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return sqlrepo.NewStore(db.DB, sql.LevelDefault), db
}
