package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasknest/internal/models"
)

func TestDashboard(t *testing.T) {
	s, mock := newTestStore(t)
	count := "SELECT COUNT(*) FROM tasks WHERE "

	mock.ExpectQuery(q(count + "(tasks.user_id = $1)")).
		WithArgs(1).
		WillReturnRows(rows("count").AddRow(int64(3)))
	mock.ExpectQuery(q(count + "(tasks.user_id = $1 AND tasks.status = $2)")).
		WithArgs(1, "completed").
		WillReturnRows(rows("count").AddRow(int64(1)))
	mock.ExpectQuery(q(count + "(tasks.user_id = $1 AND tasks.status = $2)")).
		WithArgs(1, "pending").
		WillReturnRows(rows("count").AddRow(int64(1)))
	mock.ExpectQuery(q(selectTasks + " WHERE (tasks.user_id = $1 AND tasks.deadline >= $2) ORDER BY tasks.deadline ASC LIMIT 5")).
		WithArgs(1, testNow).
		WillReturnRows(rows(taskColumns, taskRow(2, "Lab report", models.StatusInProgress, testNow.Add(time.Hour))))
	mock.ExpectQuery(q(selectTasks + " WHERE (tasks.user_id = $1 AND tasks.deadline < $2 AND tasks.status <> $3) ORDER BY tasks.deadline ASC")).
		WithArgs(1, testNow, "completed").
		WillReturnRows(rows(taskColumns, taskRow(1, "Essay", models.StatusPending, testNow.Add(-time.Hour))))
	mock.ExpectQuery(q(selectReminders + " WHERE (reminders.user_id = $1 AND reminders.is_sent = $2 AND reminders.reminder_time >= $3) ORDER BY reminders.reminder_time ASC LIMIT 5")).
		WithArgs(1, false, testNow).
		WillReturnRows(rows(reminderColumns))

	d, err := s.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.TotalTasks)
	assert.Equal(t, int64(1), d.CompletedTasks)
	assert.Equal(t, int64(1), d.PendingTasks)
	assert.Equal(t, 33.3, d.CompletionRate)
	require.Len(t, d.UpcomingTasks, 1)
	require.Len(t, d.OverdueTasks, 1)
	assert.True(t, d.OverdueTasks[0].IsOverdue(testNow))
	assert.Empty(t, d.UpcomingReminders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		completed, total int64
		want             float64
	}{
		{0, 0, 0},
		{0, 4, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{1, 8, 12.5},
		{5, 5, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, completionRate(tt.completed, tt.total), "%d/%d", tt.completed, tt.total)
	}
}
