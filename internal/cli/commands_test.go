package cli

import (
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasknest/internal/migrator"
	"github.com/eleven-am/tasknest/migrations"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

const (
	taskColumns     = "id, title, description, category, priority, status, deadline, created_at, updated_at, completed_at, user_id"
	reminderColumns = "id, title, message, reminder_time, is_sent, created_at, user_id, task_id"
)

func TestUserCreateCommand(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (class_name,email,password_hash,username) VALUES ($1,$2,$3,$4) RETURNING " + userColumns)).
		WithArgs("Form 4", "amina@example.com", sqlmock.AnyArg(), "amina").
		WillReturnRows(sqlmock.NewRows(strings.Split(userColumns, ", ")).
			AddRow(int64(1), "amina", "amina@example.com", "$2a$10$hash", nil, "Form 4", testNow))
	mock.ExpectClose()

	out, err := execute(t, "--url", "postgres://test", "user", "create",
		"--username", "amina", "--email", "amina@example.com", "--password", "secret1", "--class", "Form 4")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user amina (id 1)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateRequiresPassword(t *testing.T) {
	t.Setenv(envPassword, "")

	_, err := execute(t, "--url", "postgres://test", "user", "create", "--username", "amina", "--email", "amina@example.com")
	assert.ErrorContains(t, err, "--password or TASKNEST_PASSWORD is required")
}

func TestTaskListCommand(t *testing.T) {
	mock := useMockDB(t)
	deadline := time.Now().Add(72 * time.Hour)

	expectUser(mock, "amina", 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + taskColumns + " FROM tasks WHERE (tasks.user_id = $1 AND tasks.status = $2) ORDER BY tasks.deadline ASC, tasks.id ASC")).
		WithArgs(1, "pending").
		WillReturnRows(sqlmock.NewRows(strings.Split(taskColumns, ", ")).
			AddRow([]driver.Value{int64(5), "Essay", nil, "assignment", "high", "pending", deadline, testNow, testNow, nil, int64(1)}...))
	mock.ExpectClose()

	out, err := execute(t, "--url", "postgres://test", "--user", "amina", "task", "list", "--status", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "Essay")
	assert.Contains(t, out, "assignment")
	assert.Contains(t, out, "DAYS LEFT")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskListSearch(t *testing.T) {
	mock := useMockDB(t)
	deadline := time.Now().Add(72 * time.Hour)

	expectUser(mock, "amina", 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + taskColumns + " FROM tasks WHERE (tasks.user_id = $1 AND tasks.title ILIKE $2) ORDER BY tasks.deadline ASC, tasks.id ASC")).
		WithArgs(1, "%essay%").
		WillReturnRows(sqlmock.NewRows(strings.Split(taskColumns, ", ")).
			AddRow([]driver.Value{int64(5), "Essay", nil, "assignment", "high", "pending", deadline, testNow, testNow, nil, int64(1)}...))
	mock.ExpectClose()

	out, err := execute(t, "--url", "postgres://test", "-u", "amina", "task", "list", "--search", "essay")
	require.NoError(t, err)
	assert.Contains(t, out, "Essay")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskCommandsRequireUser(t *testing.T) {
	mock := useMockDB(t)
	mock.ExpectClose()

	_, err := execute(t, "--url", "postgres://test", "task", "list")
	assert.ErrorContains(t, err, "--user is required")
}

func TestTaskCalendarCommand(t *testing.T) {
	mock := useMockDB(t)
	deadline := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	expectUser(mock, "amina", 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + taskColumns + " FROM tasks WHERE (tasks.user_id = $1) ORDER BY tasks.deadline ASC")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(strings.Split(taskColumns, ", ")).
			AddRow([]driver.Value{int64(5), "Essay", nil, "assignment", "high", "pending", deadline, testNow, testNow, nil, int64(1)}...))
	mock.ExpectClose()

	out, err := execute(t, "--url", "postgres://test", "--user", "amina", "task", "calendar")
	require.NoError(t, err)

	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "task-high", events[0]["className"])
	assert.Equal(t, "2024-03-15T09:00:00Z", events[0]["start"])
}

func TestProgressAddRejectsBadPercentage(t *testing.T) {
	_, err := execute(t, "--url", "postgres://test", "--user", "amina", "progress", "add", "5", "lots")
	assert.ErrorContains(t, err, `invalid percentage "lots"`)
}

func TestReminderListFlags(t *testing.T) {
	_, err := execute(t, "--url", "postgres://test", "--user", "amina", "reminder", "list", "--past", "--due")
	assert.ErrorContains(t, err, "cannot be combined")
}

func TestReminderDispatchOnce(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + reminderColumns + " FROM reminders WHERE (reminders.reminder_time <= $1 AND reminders.is_sent = $2) ORDER BY reminders.reminder_time ASC, reminders.id ASC LIMIT 7 FOR UPDATE SKIP LOCKED")).
		WithArgs(sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows(strings.Split(reminderColumns, ", ")).
			AddRow(int64(3), "Revise", nil, testNow, false, testNow, int64(1), nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reminders SET is_sent = $1 WHERE (reminders.id = $2 AND reminders.is_sent = $3)")).
		WithArgs(true, 3, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	out, err := execute(t, "--url", "postgres://test", "reminder", "dispatch", "--once", "--batch", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Dispatched 1 reminder(s)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStatusCommand(t *testing.T) {
	mock := useMockDB(t)

	available, err := migrator.LoadMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, available)
	first := available[0]

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, applied_at, checksum FROM schema_migrations ORDER BY name")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "applied_at", "checksum"}).
			AddRow(first.Name, testNow, first.Checksum))
	mock.ExpectClose()

	out, err := execute(t, "--url", "postgres://test", "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, first.Name)
	assert.Contains(t, out, "applied")
	assert.NotContains(t, out, "pending")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStatusReportsEditedMigration(t *testing.T) {
	mock := useMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name, applied_at, checksum FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name", "applied_at", "checksum"}).
			AddRow("0001_create_tasknest_schema", testNow, "stale"))
	mock.ExpectClose()

	out, err := execute(t, "--url", "postgres://test", "migrate", "status")
	assert.ErrorIs(t, err, migrator.ErrChecksumMismatch)
	assert.Contains(t, out, "changed")
}
