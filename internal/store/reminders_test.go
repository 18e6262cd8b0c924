package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasknest/internal/orm"
)

var countOwnedTask = q("SELECT COUNT(*) FROM tasks WHERE (tasks.user_id = $1 AND tasks.id = $2)")

func TestCreateReminder(t *testing.T) {
	ctx := context.Background()
	at := testNow.Add(2 * time.Hour)

	t.Run("standalone", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectQuery(q("INSERT INTO reminders (message,reminder_time,title,user_id) VALUES ($1,$2,$3,$4) RETURNING " + reminderColumns)).
			WithArgs("bring calculator", at, "Maths CAT", 1).
			WillReturnRows(rows(reminderColumns, reminderRow(3, "Maths CAT", at, false, nil)))

		reminder, err := s.CreateReminder(ctx, NewReminder{UserID: 1, Title: "Maths CAT", Message: strPtr("bring calculator"), ReminderTime: at})
		require.NoError(t, err)
		assert.False(t, reminder.IsSent)
		assert.Nil(t, reminder.TaskID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown task is rejected", func(t *testing.T) {
		s, mock := newTestStore(t)
		taskID := int64(404)

		mock.ExpectBegin()
		mock.ExpectQuery(countOwnedTask).
			WithArgs(1, 404).
			WillReturnRows(rows("count").AddRow(int64(1)))
		mock.ExpectQuery(q("INSERT INTO reminders (reminder_time,task_id,title,user_id) VALUES ($1,$2,$3,$4)")).
			WithArgs(at, 404, "Essay", 1).
			WillReturnError(&pq.Error{Code: "23503", Table: "reminders", Constraint: "reminders_task_id_fkey"})
		mock.ExpectRollback()

		_, err := s.CreateReminder(ctx, NewReminder{UserID: 1, TaskID: &taskID, Title: "Essay", ReminderTime: at})
		assert.ErrorIs(t, err, ErrTaskNotFound)
		assert.ErrorIs(t, err, orm.ErrForeignKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("linked to own task", func(t *testing.T) {
		s, mock := newTestStore(t)
		taskID := int64(5)

		mock.ExpectBegin()
		mock.ExpectQuery(countOwnedTask).
			WithArgs(1, 5).
			WillReturnRows(rows("count").AddRow(int64(1)))
		mock.ExpectQuery(q("INSERT INTO reminders (reminder_time,task_id,title,user_id) VALUES ($1,$2,$3,$4)")).
			WithArgs(at, 5, "Essay", 1).
			WillReturnRows(rows(reminderColumns, reminderRow(9, "Essay", at, false, int64(5))))
		mock.ExpectCommit()

		reminder, err := s.CreateReminder(ctx, NewReminder{UserID: 1, TaskID: &taskID, Title: "Essay", ReminderTime: at})
		require.NoError(t, err)
		require.NotNil(t, reminder.TaskID)
		assert.Equal(t, int64(5), *reminder.TaskID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("another user's task is rejected", func(t *testing.T) {
		s, mock := newTestStore(t)
		taskID := int64(7)

		mock.ExpectBegin()
		mock.ExpectQuery(countOwnedTask).
			WithArgs(1, 7).
			WillReturnRows(rows("count").AddRow(int64(0)))
		mock.ExpectRollback()

		_, err := s.CreateReminder(ctx, NewReminder{UserID: 1, TaskID: &taskID, Title: "Essay", ReminderTime: at})
		assert.ErrorIs(t, err, ErrTaskNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("validation", func(t *testing.T) {
		s, _ := newTestStore(t)

		_, err := s.CreateReminder(ctx, NewReminder{UserID: 1})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestReminderListings(t *testing.T) {
	ctx := context.Background()

	t.Run("upcoming", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectQuery(q(selectReminders + " WHERE (reminders.user_id = $1 AND reminders.is_sent = $2 AND reminders.reminder_time >= $3) ORDER BY reminders.reminder_time ASC")).
			WithArgs(1, false, testNow).
			WillReturnRows(rows(reminderColumns, reminderRow(1, "Soon", testNow.Add(time.Hour), false, nil)))

		reminders, err := s.ListUpcomingReminders(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, reminders, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("past", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectQuery(q(selectReminders + " WHERE (reminders.user_id = $1 AND (reminders.is_sent = $2 OR reminders.reminder_time < $3)) ORDER BY reminders.reminder_time DESC LIMIT 10")).
			WithArgs(1, true, testNow).
			WillReturnRows(rows(reminderColumns))

		reminders, err := s.ListPastReminders(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, reminders)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("due", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectQuery(q(selectReminders + " WHERE (reminders.user_id = $1 AND reminders.reminder_time <= $2 AND reminders.is_sent = $3) ORDER BY reminders.reminder_time ASC")).
			WithArgs(1, testNow, false).
			WillReturnRows(rows(reminderColumns, reminderRow(2, "Now", testNow, false, nil)))

		reminders, err := s.DueReminders(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, reminders, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkReminderSent(t *testing.T) {
	ctx := context.Background()
	markSent := q("UPDATE reminders SET is_sent = $1 WHERE (reminders.user_id = $2 AND reminders.id = $3)")

	t.Run("owned reminder", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectExec(markSent).
			WithArgs(true, 1, 7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.MarkReminderSent(ctx, 1, 7))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else's reminder", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectExec(markSent).
			WithArgs(true, 2, 7).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.MarkReminderSent(ctx, 2, 7), ErrReminderNotFound)
	})
}

func TestDeleteReminder(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(q("DELETE FROM reminders WHERE (reminders.user_id = $1 AND reminders.id = $2)")).
		WithArgs(1, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteReminder(context.Background(), 1, 7), ErrReminderNotFound)
}

func TestDispatcherQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("pending reminders skip locked rows", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectQuery(q(selectReminders + " WHERE (reminders.reminder_time <= $1 AND reminders.is_sent = $2) ORDER BY reminders.reminder_time ASC, reminders.id ASC LIMIT 20 FOR UPDATE SKIP LOCKED")).
			WithArgs(testNow, false).
			WillReturnRows(rows(reminderColumns,
				reminderRow(1, "A", testNow.Add(-time.Hour), false, nil),
				reminderRow(2, "B", testNow, false, int64(5))))

		reminders, err := s.PendingReminders(ctx, testNow, 20)
		require.NoError(t, err)
		require.Len(t, reminders, 2)
		require.NotNil(t, reminders[1].TaskID)
		assert.Equal(t, int64(5), *reminders[1].TaskID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pending reminders leave out skipped ids", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectQuery(q(selectReminders + " WHERE (reminders.reminder_time <= $1 AND reminders.is_sent = $2 AND reminders.id NOT IN ($3,$4)) ORDER BY reminders.reminder_time ASC, reminders.id ASC LIMIT 1 FOR UPDATE SKIP LOCKED")).
			WithArgs(testNow, false, 1, 2).
			WillReturnRows(rows(reminderColumns, reminderRow(3, "C", testNow, false, nil)))

		reminders, err := s.PendingReminders(ctx, testNow, 1, 1, 2)
		require.NoError(t, err)
		require.Len(t, reminders, 1)
		assert.Equal(t, int64(3), reminders[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mark sent is conditional", func(t *testing.T) {
		s, mock := newTestStore(t)
		markSent := q("UPDATE reminders SET is_sent = $1 WHERE (reminders.id = $2 AND reminders.is_sent = $3)")

		mock.ExpectExec(markSent).
			WithArgs(true, 1, false).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(markSent).
			WithArgs(true, 1, false).
			WillReturnResult(sqlmock.NewResult(0, 0))

		flipped, err := s.MarkSent(ctx, 1)
		require.NoError(t, err)
		assert.True(t, flipped)

		flipped, err = s.MarkSent(ctx, 1)
		require.NoError(t, err)
		assert.False(t, flipped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
