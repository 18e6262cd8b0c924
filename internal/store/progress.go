package store

import (
	"context"

	"github.com/eleven-am/tasknest/internal/models"
)

type progressInput struct {
	Percentage int `json:"progress_percentage" validate:"gte=0,lte=100"`
}

// RecordProgress appends a progress entry. Reaching 100 completes the task;
// any other positive value moves it to in_progress.
func (s *Store) RecordProgress(ctx context.Context, userID, taskID int64, percentage int, notes *string) (*models.Progress, error) {
	if err := s.check(progressInput{Percentage: percentage}); err != nil {
		return nil, err
	}

	values := map[string]interface{}{
		"progress_percentage": percentage,
		"user_id":             userID,
		"task_id":             taskID,
	}
	if notes != nil {
		values["notes"] = *notes
	}

	var entry *models.Progress
	err := s.WithTransaction(ctx, func(tx *Store) error {
		task, err := tx.lockTask(ctx, userID, taskID)
		if err != nil {
			return err
		}

		if entry, err = tx.progress.Insert(ctx, values); err != nil {
			return err
		}

		switch {
		case percentage == models.MaxProgress:
			return tx.setTaskStatus(ctx, task, models.StatusCompleted, tx.Now())
		case percentage > 0:
			return tx.setTaskStatus(ctx, task, models.StatusInProgress, tx.Now())
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}

	return entry, nil
}

// ListProgress returns the task's history, newest first.
func (s *Store) ListProgress(ctx context.Context, userID, taskID int64) ([]models.Progress, error) {
	if _, err := s.GetTask(ctx, userID, taskID); err != nil {
		return nil, err
	}

	return s.userProgress(userID).Query(ctx).
		Where(models.ProgressColumns.TaskID.Eq(taskID)).
		OrderBy(models.ProgressColumns.RecordedAt.Desc(), models.ProgressColumns.ID.Desc()).
		Find()
}
