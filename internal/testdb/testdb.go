// Package testdb creates throwaway PostgreSQL databases for integration
// tests.
package testdb

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/migrator"
	"github.com/eleven-am/tasknest/migrations"
)

// EnvURL names the server integration tests run against. Any database on
// the server works; each test gets its own.
const EnvURL = "TASKNEST_TEST_DATABASE_URL"

// TestDB provides a test database connection
type TestDB struct {
	DB      *sqlx.DB
	DBName  string
	ConnStr string

	adminConnStr string
	t            *testing.T
}

// New creates an empty database for t and drops it when t finishes. It
// skips t in short mode or when EnvURL is unset.
func New(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	base := os.Getenv(EnvURL)
	if base == "" {
		t.Skipf("%s not set", EnvURL)
	}

	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("invalid %s: %v", EnvURL, err)
	}

	tdb := &TestDB{
		DBName:       fmt.Sprintf("tasknest_test_%d", time.Now().UnixNano()),
		adminConnStr: base,
		t:            t,
	}
	u.Path = "/" + tdb.DBName
	tdb.ConnStr = u.String()

	ctx := context.Background()
	if err := migrator.EnsureDatabaseExists(ctx, tdb.ConnStr); err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	tdb.DB, err = migrator.NewDBConfig(tdb.ConnStr).Connect(ctx)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	t.Cleanup(tdb.cleanup)
	return tdb
}

// NewMigrated is New followed by applying every embedded migration.
func NewMigrated(t *testing.T) *TestDB {
	t.Helper()

	tdb := New(t)
	m := migrator.New(tdb.DB, migrations.FS, migrator.WithLogger(logger.Discard()))
	if _, err := m.Up(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return tdb
}

// cleanup drops the test database
func (tdb *TestDB) cleanup() {
	tdb.DB.Close()

	admin, err := sqlx.Open("postgres", tdb.adminConnStr)
	if err != nil {
		tdb.t.Logf("failed to connect for cleanup: %v", err)
		return
	}
	defer admin.Close()

	_, err = admin.Exec(`
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1
		AND pid <> pg_backend_pid()
	`, tdb.DBName)
	if err != nil {
		tdb.t.Logf("failed to terminate connections: %v", err)
	}

	if _, err := admin.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", tdb.DBName)); err != nil {
		tdb.t.Logf("failed to drop test database: %v", err)
	}
}

// ExecuteSQL executes SQL statements
func (tdb *TestDB) ExecuteSQL(sql string) error {
	for _, stmt := range migrator.SplitStatements(sql) {
		if _, err := tdb.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute SQL: %w\nStatement: %s", err, stmt)
		}
	}
	return nil
}

// Count returns the number of rows in table matching where, which may be
// empty.
func (tdb *TestDB) Count(table, where string, args ...interface{}) int {
	tdb.t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if strings.TrimSpace(where) != "" {
		query += " WHERE " + where
	}

	var n int
	if err := tdb.DB.Get(&n, query, args...); err != nil {
		tdb.t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// TableExists checks if a table exists
func (tdb *TestDB) TableExists(tableName string) bool {
	return tdb.exists(`
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)`, tableName)
}

// ColumnDefault returns the default expression of a column, or "" when it
// has none.
func (tdb *TestDB) ColumnDefault(tableName, columnName string) string {
	tdb.t.Helper()

	var def *string
	err := tdb.DB.Get(&def, `
		SELECT column_default
		FROM information_schema.columns
		WHERE table_schema = 'public'
		AND table_name = $1
		AND column_name = $2`, tableName, columnName)
	if err != nil {
		tdb.t.Fatalf("column default %s.%s: %v", tableName, columnName, err)
	}
	if def == nil {
		return ""
	}
	return *def
}

// IndexExists checks if an index exists
func (tdb *TestDB) IndexExists(indexName string) bool {
	return tdb.exists(`
		SELECT EXISTS (
			SELECT 1
			FROM pg_indexes
			WHERE schemaname = 'public'
			AND indexname = $1
		)`, indexName)
}

// ConstraintExists checks if a constraint exists
func (tdb *TestDB) ConstraintExists(tableName, constraintName string) bool {
	return tdb.exists(`
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.table_constraints
			WHERE table_schema = 'public'
			AND table_name = $1
			AND constraint_name = $2
		)`, tableName, constraintName)
}

func (tdb *TestDB) exists(query string, args ...interface{}) bool {
	tdb.t.Helper()

	var ok bool
	if err := tdb.DB.Get(&ok, query, args...); err != nil {
		tdb.t.Fatalf("existence check failed: %v", err)
	}
	return ok
}
