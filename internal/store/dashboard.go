package store

import (
	"context"
	"math"

	"github.com/eleven-am/tasknest/internal/models"
)

const (
	dashboardUpcomingTasks     = 5
	dashboardUpcomingReminders = 5
)

// Dashboard summarises a user's workload.
type Dashboard struct {
	TotalTasks        int64             `json:"total_tasks"`
	CompletedTasks    int64             `json:"completed_tasks"`
	PendingTasks      int64             `json:"pending_tasks"`
	CompletionRate    float64           `json:"completion_rate"`
	UpcomingTasks     []models.Task     `json:"upcoming_tasks"`
	OverdueTasks      []models.Task     `json:"overdue_tasks"`
	UpcomingReminders []models.Reminder `json:"upcoming_reminders"`
}

func (s *Store) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	tasks := s.userTasks(userID)
	now := s.Now()
	d := &Dashboard{}

	var err error
	if d.TotalTasks, err = tasks.Query(ctx).Count(); err != nil {
		return nil, err
	}
	if d.CompletedTasks, err = tasks.Query(ctx).Where(models.TaskColumns.Status.Eq(models.StatusCompleted)).Count(); err != nil {
		return nil, err
	}
	if d.PendingTasks, err = tasks.Query(ctx).Where(models.TaskColumns.Status.Eq(models.StatusPending)).Count(); err != nil {
		return nil, err
	}

	d.UpcomingTasks, err = tasks.Query(ctx).
		Where(models.TaskColumns.Deadline.Since(now)).
		OrderBy(models.TaskColumns.Deadline.Asc()).
		Limit(dashboardUpcomingTasks).
		Find()
	if err != nil {
		return nil, err
	}

	d.OverdueTasks, err = tasks.Query(ctx).
		Where(models.TaskColumns.Deadline.Before(now)).
		Where(models.TaskColumns.Status.NotEq(models.StatusCompleted)).
		OrderBy(models.TaskColumns.Deadline.Asc()).
		Find()
	if err != nil {
		return nil, err
	}

	if d.UpcomingReminders, err = s.upcomingReminders(ctx, userID, dashboardUpcomingReminders); err != nil {
		return nil, err
	}

	d.CompletionRate = completionRate(d.CompletedTasks, d.TotalTasks)
	return d, nil
}

// completionRate is the completed share as a percentage rounded to one
// decimal place.
func completionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}
