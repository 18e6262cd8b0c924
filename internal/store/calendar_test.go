package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasknest/internal/models"
)

func TestCalendarEvents(t *testing.T) {
	s, mock := newTestStore(t)
	deadline := testNow.Add(72 * time.Hour)

	mock.ExpectQuery(q(selectTasks + " WHERE (tasks.user_id = $1) ORDER BY tasks.deadline ASC")).
		WithArgs(1).
		WillReturnRows(rows(taskColumns, taskRow(4, "Revise", models.StatusPending, deadline)))

	events, err := s.CalendarEvents(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, int64(4), event.ID)
	assert.Equal(t, deadline, event.Start)
	assert.Equal(t, "task-medium", event.ClassName)

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"className":"task-medium"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
