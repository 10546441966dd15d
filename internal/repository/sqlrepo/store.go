// Package sqlrepo implements the repository interfaces on database/sql.
// Queries are written in the subset of SQL shared by PostgreSQL and SQLite
// ($n placeholders, RETURNING).
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Kerhoff/todotree/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the database/sql implementation of repository.Store.
type Store struct {
	db        *sql.DB
	isolation sql.IsolationLevel
}

// NewStore creates a store whose transactions run at the given isolation
// level. Use sql.LevelReadCommitted for PostgreSQL and sql.LevelDefault for
// SQLite, which only offers serializable transactions.
func NewStore(db *sql.DB, isolation sql.IsolationLevel) *Store {
	return &Store{db: db, isolation: isolation}
}

// Repositories returns repositories that run each statement on the pool.
func (s *Store) Repositories() repository.Repositories {
	return bind(s.db)
}

// WithinTx runs fn inside one transaction. The transaction is rolled back
// when fn returns an error or panics, and committed otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: s.isolation})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, bind(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func bind(db DBTX) repository.Repositories {
	return repository.Repositories{
		Users: NewUserRepository(db),
		Lists: NewListRepository(db),
		Items: NewItemRepository(db),
	}
}

// isUniqueViolation reports whether err is a unique constraint failure from
// either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}

type scanner interface {
	Scan(dest ...any) error
}
