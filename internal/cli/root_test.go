package cli

import (
	"bytes"
	"context"
	"database/sql/driver"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasknest/internal/migrator"
)

// execute runs the root command with args and returns everything written
// to stdout and stderr.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(envDatabaseURL, "")
	t.Setenv(envConfig, "")

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// useMockDB routes every connection the commands open to sqlmock.
func useMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	saved := openDB
	openDB = func(ctx context.Context, cfg *migrator.DBConfig) (*sqlx.DB, error) {
		return sqlx.NewDb(db, "postgres"), nil
	}
	t.Cleanup(func() {
		openDB = saved
		db.Close()
	})
	return mock
}

const userColumns = "id, username, email, password_hash, full_name, class_name, created_at"

func expectUser(mock sqlmock.Sqlmock, username string, id int64) {
	rows := sqlmock.NewRows(strings.Split(userColumns, ", ")).
		AddRow([]driver.Value{id, username, username + "@example.com", "$2a$10$hash", nil, nil, testNow}...)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE (users.username = $1) LIMIT 1")).
		WithArgs(username).
		WillReturnRows(rows)
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "tasknest", cmd.Use)
	assert.NotEmpty(t, cmd.Version)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"migrate", "schema", "verify", "user", "task", "progress", "reminder", "exam", "dashboard", "version"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "url", "user", "log-format", "debug", "verbose", "json"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootSetup(t *testing.T) {
	t.Run("missing explicit config fails", func(t *testing.T) {
		_, err := execute(t, "--config", "/non/existent/tasknest.yaml", "version")
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("broken default config warns", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)
		writeFile(t, dir, "tasknest.yaml", "database: [unclosed")

		out, err := execute(t, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "Warning: Failed to load config file")
		assert.Contains(t, out, "tasknest ")
	})

	t.Run("unknown log format", func(t *testing.T) {
		_, err := execute(t, "--log-format", "xml", "version")
		assert.ErrorContains(t, err, `unknown log format "xml"`)
	})

	t.Run("database url required", func(t *testing.T) {
		chdir(t, t.TempDir())

		_, err := execute(t, "--user", "amina", "task", "list")
		assert.ErrorContains(t, err, "database connection required")
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema Version: 0001")
}
