package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasknest/internal/models"
)

func TestRecordProgress(t *testing.T) {
	ctx := context.Background()
	deadline := testNow.Add(48 * time.Hour)
	insertProgress := "INSERT INTO progress (notes,progress_percentage,task_id,user_id) VALUES ($1,$2,$3,$4) RETURNING " + progressColumns

	t.Run("partial progress starts the task", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectBegin()
		expectLockTask(mock, 1, 5, taskRow(5, "Essay", models.StatusPending, deadline))
		mock.ExpectQuery(q(insertProgress)).
			WithArgs("outline done", 50, 5, 1).
			WillReturnRows(rows(progressColumns, progressRow(8, 5, 50)))
		mock.ExpectExec(q("UPDATE tasks SET status = $1, updated_at = $2 WHERE (tasks.id = $3)")).
			WithArgs("in_progress", testNow, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		entry, err := s.RecordProgress(ctx, 1, 5, 50, strPtr("outline done"))
		require.NoError(t, err)
		assert.Equal(t, 50, entry.ProgressPercentage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("full progress completes the task", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectBegin()
		expectLockTask(mock, 1, 5, taskRow(5, "Essay", models.StatusInProgress, deadline))
		mock.ExpectQuery(q("INSERT INTO progress (progress_percentage,task_id,user_id) VALUES ($1,$2,$3)")).
			WithArgs(100, 5, 1).
			WillReturnRows(rows(progressColumns, progressRow(9, 5, 100)))
		mock.ExpectExec(q("UPDATE tasks SET completed_at = $1, status = $2, updated_at = $3 WHERE (tasks.id = $4)")).
			WithArgs(testNow, "completed", testNow, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := s.RecordProgress(ctx, 1, 5, 100, nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("partial progress reopens a completed task", func(t *testing.T) {
		s, mock := newTestStore(t)

		done := taskRow(5, "Essay", models.StatusCompleted, deadline)
		done[9] = testNow.Add(-time.Hour)

		mock.ExpectBegin()
		expectLockTask(mock, 1, 5, done)
		mock.ExpectQuery(q("INSERT INTO progress (progress_percentage,task_id,user_id) VALUES ($1,$2,$3)")).
			WithArgs(80, 5, 1).
			WillReturnRows(rows(progressColumns, progressRow(11, 5, 80)))
		mock.ExpectExec(q("UPDATE tasks SET completed_at = $1, status = $2, updated_at = $3 WHERE (tasks.id = $4)")).
			WithArgs(nil, "in_progress", testNow, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := s.RecordProgress(ctx, 1, 5, 80, nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero leaves the task alone", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectBegin()
		expectLockTask(mock, 1, 5, taskRow(5, "Essay", models.StatusPending, deadline))
		mock.ExpectQuery(q("INSERT INTO progress")).
			WithArgs(0, 5, 1).
			WillReturnRows(rows(progressColumns, progressRow(10, 5, 0)))
		mock.ExpectCommit()

		_, err := s.RecordProgress(ctx, 1, 5, 0, nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("out of range", func(t *testing.T) {
		s, mock := newTestStore(t)

		_, err := s.RecordProgress(ctx, 1, 5, 120, nil)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = s.RecordProgress(ctx, 1, 5, -1, nil)
		assert.ErrorIs(t, err, ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("task owned by someone else", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectBegin()
		expectLockTask(mock, 2, 5, nil)
		mock.ExpectRollback()

		_, err := s.RecordProgress(ctx, 2, 5, 50, nil)
		assert.ErrorIs(t, err, ErrTaskNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListProgress(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestStore(t)

	mock.ExpectQuery(q(selectTasks + " WHERE (tasks.user_id = $1 AND tasks.id = $2) LIMIT 1")).
		WithArgs(1, 5).
		WillReturnRows(rows(taskColumns, taskRow(5, "Essay", models.StatusInProgress, testNow)))
	mock.ExpectQuery(q(selectProgress + " WHERE (progress.user_id = $1 AND progress.task_id = $2) ORDER BY progress.recorded_at DESC, progress.id DESC")).
		WithArgs(1, 5).
		WillReturnRows(rows(progressColumns, progressRow(9, 5, 60), progressRow(8, 5, 30)))

	history, err := s.ListProgress(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 60, history[0].ProgressPercentage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
