package store

import (
	"context"
	"time"

	"github.com/eleven-am/tasknest/internal/models"
)

// CalendarEvent is a task placed on a calendar at its deadline.
type CalendarEvent struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Start     time.Time       `json:"start"`
	ClassName string          `json:"className"`
	Category  models.Category `json:"category"`
	Status    models.Status   `json:"status"`
}

func (s *Store) CalendarEvents(ctx context.Context, userID int64) ([]CalendarEvent, error) {
	tasks, err := s.userTasks(userID).Query(ctx).
		OrderBy(models.TaskColumns.Deadline.Asc()).
		Find()
	if err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(tasks))
	for _, task := range tasks {
		events = append(events, CalendarEvent{
			ID:        task.ID,
			Title:     task.Title,
			Start:     task.Deadline,
			ClassName: "task-" + string(task.Priority),
			Category:  task.Category,
			Status:    task.Status,
		})
	}
	return events, nil
}
