package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/orm"
)

// autoReminderLead is how far ahead of a deadline the automatic reminder
// fires.
const autoReminderLead = 24 * time.Hour

// NewTask leaves Category, Priority and Status empty to take the column
// defaults.
type NewTask struct {
	UserID      int64           `json:"user_id" validate:"required,gt=0"`
	Title       string          `json:"title" validate:"required,max=200"`
	Description *string         `json:"description"`
	Category    models.Category `json:"category" validate:"omitempty,category"`
	Priority    models.Priority `json:"priority" validate:"omitempty,priority"`
	Status      models.Status   `json:"status" validate:"omitempty,status"`
	Deadline    time.Time       `json:"deadline" validate:"required"`
}

// TaskUpdate changes only the fields that are set.
type TaskUpdate struct {
	Title       *string          `json:"title" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	Category    *models.Category `json:"category" validate:"omitempty,category"`
	Priority    *models.Priority `json:"priority" validate:"omitempty,priority"`
	Status      *models.Status   `json:"status" validate:"omitempty,status"`
	Deadline    *time.Time       `json:"deadline"`
}

// TaskFilter narrows ListTasks. Empty fields match everything. Search
// matches a case-insensitive substring of the title.
type TaskFilter struct {
	Status   models.Status   `json:"status" validate:"omitempty,status"`
	Category models.Category `json:"category" validate:"omitempty,category"`
	Search   string          `json:"search" validate:"max=200"`
}

// CreateTask inserts a task and, when the deadline is more than a day away,
// a reminder due one day before it.
func (s *Store) CreateTask(ctx context.Context, input NewTask) (*models.Task, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}

	values := map[string]interface{}{
		"user_id":  input.UserID,
		"title":    input.Title,
		"deadline": input.Deadline,
	}
	if input.Description != nil {
		values["description"] = *input.Description
	}
	if input.Category != "" {
		values["category"] = input.Category
	}
	if input.Priority != "" {
		values["priority"] = input.Priority
	}
	if input.Status != "" {
		values["status"] = input.Status
	}

	var task *models.Task
	err := s.WithTransaction(ctx, func(tx *Store) error {
		var err error
		if task, err = tx.tasks.Insert(ctx, values); err != nil {
			return missingParent(err)
		}

		reminderTime := task.Deadline.Add(-autoReminderLead)
		if !reminderTime.After(tx.Now()) {
			return nil
		}

		_, err = tx.reminders.Insert(ctx, map[string]interface{}{
			"title":         "Reminder: " + task.Title,
			"message":       fmt.Sprintf("Your task '%s' is due tomorrow!", task.Title),
			"reminder_time": reminderTime,
			"user_id":       task.UserID,
			"task_id":       task.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("task created", "task_id", task.ID, "user_id", task.UserID)
	return task, nil
}

func (s *Store) GetTask(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	task, err := s.userTasks(userID).FindByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}
	return task, nil
}

// ListTasks returns the user's tasks, earliest deadline first.
func (s *Store) ListTasks(ctx context.Context, userID int64, filter TaskFilter) ([]models.Task, error) {
	if err := s.check(filter); err != nil {
		return nil, err
	}

	q := s.userTasks(userID).Query(ctx)
	if filter.Status != "" {
		q = q.Where(models.TaskColumns.Status.Eq(filter.Status))
	}
	if filter.Category != "" {
		q = q.Where(models.TaskColumns.Category.Eq(filter.Category))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where(models.TaskColumns.Title.Contains(search))
	}

	return q.OrderBy(models.TaskColumns.Deadline.Asc(), models.TaskColumns.ID.Asc()).Find()
}

// UpdateTask applies update and refreshes updated_at. Moving a task to
// completed stamps completed_at; moving it out clears it.
func (s *Store) UpdateTask(ctx context.Context, userID, taskID int64, update TaskUpdate) (*models.Task, error) {
	if err := s.check(update); err != nil {
		return nil, err
	}

	now := s.Now()
	values := map[string]interface{}{"updated_at": now}
	if update.Title != nil {
		values["title"] = *update.Title
	}
	if update.Description != nil {
		values["description"] = *update.Description
	}
	if update.Category != nil {
		values["category"] = *update.Category
	}
	if update.Priority != nil {
		values["priority"] = *update.Priority
	}
	if update.Deadline != nil {
		values["deadline"] = *update.Deadline
	}
	if update.Status != nil {
		values["status"] = *update.Status
		if *update.Status == models.StatusCompleted {
			values["completed_at"] = now
		} else {
			values["completed_at"] = nil
		}
	}

	var task *models.Task
	err := s.WithTransaction(ctx, func(tx *Store) error {
		tasks := tx.userTasks(userID)

		affected, err := tasks.Query(ctx).
			Where(models.TaskColumns.ID.Eq(taskID)).
			Update(values)
		if err != nil {
			return err
		}
		if affected == 0 {
			return &orm.Error{Op: "update", Table: "tasks", Err: orm.ErrNotFound}
		}

		task, err = tasks.FindByID(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}

	return task, nil
}

// CompleteTask marks the task completed and records 100% progress unless
// the latest entry already says so.
func (s *Store) CompleteTask(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	var task *models.Task
	err := s.WithTransaction(ctx, func(tx *Store) error {
		var err error
		if task, err = tx.lockTask(ctx, userID, taskID); err != nil {
			return err
		}

		now := tx.Now()
		if err := tx.setTaskStatus(ctx, task, models.StatusCompleted, now); err != nil {
			return err
		}

		latest, err := tx.progress.Query(ctx).
			Where(models.ProgressColumns.TaskID.Eq(taskID)).
			OrderBy(models.ProgressColumns.RecordedAt.Desc(), models.ProgressColumns.ID.Desc()).
			First()
		if err != nil && !errors.Is(err, orm.ErrNotFound) {
			return err
		}
		if err == nil && latest.ProgressPercentage == models.MaxProgress {
			return nil
		}

		_, err = tx.progress.Insert(ctx, map[string]interface{}{
			"progress_percentage": models.MaxProgress,
			"notes":               "Task completed",
			"user_id":             userID,
			"task_id":             taskID,
		})
		return err
	})
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}

	s.log.Info("task completed", "task_id", taskID, "user_id", userID)
	return task, nil
}

// DeleteTask removes the task together with its reminders and progress.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID int64) error {
	if err := s.userTasks(userID).Delete(ctx, taskID); err != nil {
		return notFound(err, ErrTaskNotFound)
	}

	s.log.Info("task deleted", "task_id", taskID, "user_id", userID)
	return nil
}

// lockTask loads the user's task and holds a row lock on it until the
// transaction ends.
func (s *Store) lockTask(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	return s.userTasks(userID).Query(ctx).
		Where(models.TaskColumns.ID.Eq(taskID)).
		ForUpdate(false).
		First()
}

// setTaskStatus writes status to the row and mirrors it onto task. Leaving
// completed clears completed_at.
func (s *Store) setTaskStatus(ctx context.Context, task *models.Task, status models.Status, now time.Time) error {
	values := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	switch {
	case status == models.StatusCompleted:
		values["completed_at"] = now
	case task.CompletedAt != nil:
		values["completed_at"] = nil
	}

	_, err := s.tasks.Query(ctx).
		Where(models.TaskColumns.ID.Eq(task.ID)).
		Update(values)
	if err != nil {
		return err
	}

	task.Status = status
	task.UpdatedAt = now
	if status == models.StatusCompleted {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
	return nil
}
