package store

import (
	"bytes"
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/models"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

const (
	userColumns     = "id, username, email, password_hash, full_name, class_name, created_at"
	taskColumns     = "id, title, description, category, priority, status, deadline, created_at, updated_at, completed_at, user_id"
	reminderColumns = "id, title, message, reminder_time, is_sent, created_at, user_id, task_id"
	progressColumns = "id, user_id, task_id, progress_percentage, notes, recorded_at"
	examColumns     = "id, subject, exam_date, exam_type, location, notes, created_at, user_id"

	selectTasks     = "SELECT " + taskColumns + " FROM tasks"
	selectReminders = "SELECT " + reminderColumns + " FROM reminders"
	selectProgress  = "SELECT " + progressColumns + " FROM progress"
	selectExams     = "SELECT " + examColumns + " FROM exams"
)

func cols(list string) []string {
	return strings.Split(list, ", ")
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

func newTestStore(t *testing.T, opts ...Option) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithLogger(logger.Discard()),
	}, opts...)

	s, err := New(sqlx.NewDb(db, "postgres"), opts...)
	require.NoError(t, err)
	return s, mock
}

func userRow(id int64, username, email string) []driver.Value {
	return []driver.Value{id, username, email, "$2a$10$hash", nil, nil, testNow}
}

func taskRow(id int64, title string, status models.Status, deadline time.Time) []driver.Value {
	return []driver.Value{id, title, nil, "general", "medium", string(status), deadline, testNow, testNow, nil, int64(1)}
}

func reminderRow(id int64, title string, at time.Time, sent bool, taskID interface{}) []driver.Value {
	return []driver.Value{id, title, nil, at, sent, testNow, int64(1), taskID}
}

func progressRow(id, taskID int64, pct int) []driver.Value {
	return []driver.Value{id, int64(1), taskID, int64(pct), nil, testNow}
}

func rows(columns string, values ...[]driver.Value) *sqlmock.Rows {
	r := sqlmock.NewRows(cols(columns))
	for _, v := range values {
		r.AddRow(v...)
	}
	return r
}

func strPtr(s string) *string {
	return &s
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success and reuses nested transactions", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := s.WithTransaction(ctx, func(tx *Store) error {
			return tx.WithTransaction(ctx, func(inner *Store) error {
				assert.Same(t, tx, inner)
				return nil
			})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		s, mock := newTestStore(t)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := s.WithTransaction(ctx, func(tx *Store) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWithQueryLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Verbose: true})

	s, mock := newTestStore(t, WithLogger(log), WithQueryLogging())

	mock.ExpectQuery(q("SELECT " + userColumns + " FROM users WHERE (users.id = $1) LIMIT 1")).
		WithArgs(1).
		WillReturnRows(rows(userColumns, userRow(1, "amina", "amina@example.com")))

	_, err := s.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "query executed")
	assert.Contains(t, buf.String(), "table=users")
}

func TestNow(t *testing.T) {
	local := time.Date(2024, 3, 10, 15, 0, 0, 0, time.FixedZone("EAT", 3*60*60))
	s, _ := newTestStore(t, WithClock(func() time.Time { return local }))

	assert.Equal(t, time.UTC, s.Now().Location())
	assert.True(t, s.Now().Equal(testNow))
}
