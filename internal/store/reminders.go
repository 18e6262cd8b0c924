package store

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/orm"
)

// pastRemindersLimit caps ListPastReminders.
const pastRemindersLimit = 10

type NewReminder struct {
	UserID       int64     `json:"user_id" validate:"required,gt=0"`
	TaskID       *int64    `json:"task_id" validate:"omitempty,gt=0"`
	Title        string    `json:"title" validate:"required,max=200"`
	Message      *string   `json:"message"`
	ReminderTime time.Time `json:"reminder_time" validate:"required"`
}

// CreateReminder inserts a reminder. A TaskID that does not exist or belongs
// to another user returns ErrTaskNotFound.
func (s *Store) CreateReminder(ctx context.Context, input NewReminder) (*models.Reminder, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}

	values := map[string]interface{}{
		"user_id":       input.UserID,
		"title":         input.Title,
		"reminder_time": input.ReminderTime,
	}
	if input.TaskID != nil {
		values["task_id"] = *input.TaskID
	}
	if input.Message != nil {
		values["message"] = *input.Message
	}

	if input.TaskID == nil {
		reminder, err := s.reminders.Insert(ctx, values)
		if err != nil {
			return nil, missingParent(err)
		}
		return reminder, nil
	}

	var reminder *models.Reminder
	err := s.WithTransaction(ctx, func(tx *Store) error {
		owned, err := tx.userTasks(input.UserID).Query(ctx).
			Where(models.TaskColumns.ID.Eq(*input.TaskID)).
			Exists()
		if err != nil {
			return err
		}
		if !owned {
			return fmt.Errorf("%w: task %d", ErrTaskNotFound, *input.TaskID)
		}

		reminder, err = tx.reminders.Insert(ctx, values)
		return err
	})
	if err != nil {
		return nil, missingParent(err)
	}
	return reminder, nil
}

// ListUpcomingReminders returns unsent reminders from now on, soonest
// first.
func (s *Store) ListUpcomingReminders(ctx context.Context, userID int64) ([]models.Reminder, error) {
	return s.upcomingReminders(ctx, userID, 0)
}

func (s *Store) upcomingReminders(ctx context.Context, userID int64, limit uint64) ([]models.Reminder, error) {
	q := s.userReminders(userID).Query(ctx).
		Where(models.ReminderColumns.IsSent.IsFalse()).
		Where(models.ReminderColumns.ReminderTime.Since(s.Now())).
		OrderBy(models.ReminderColumns.ReminderTime.Asc())
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q.Find()
}

// ListPastReminders returns the ten most recent reminders that were sent or
// whose time has passed.
func (s *Store) ListPastReminders(ctx context.Context, userID int64) ([]models.Reminder, error) {
	return s.userReminders(userID).Query(ctx).
		Where(orm.Or(
			models.ReminderColumns.IsSent.IsTrue(),
			models.ReminderColumns.ReminderTime.Before(s.Now()),
		)).
		OrderBy(models.ReminderColumns.ReminderTime.Desc()).
		Limit(pastRemindersLimit).
		Find()
}

// DueReminders returns the user's unsent reminders whose time has come.
func (s *Store) DueReminders(ctx context.Context, userID int64) ([]models.Reminder, error) {
	return s.userReminders(userID).Query(ctx).
		Where(models.ReminderColumns.ReminderTime.Until(s.Now())).
		Where(models.ReminderColumns.IsSent.IsFalse()).
		OrderBy(models.ReminderColumns.ReminderTime.Asc()).
		Find()
}

// MarkReminderSent flags one of the user's reminders as seen.
func (s *Store) MarkReminderSent(ctx context.Context, userID, reminderID int64) error {
	affected, err := s.userReminders(userID).Query(ctx).
		Where(models.ReminderColumns.ID.Eq(reminderID)).
		Update(map[string]interface{}{"is_sent": true})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (s *Store) DeleteReminder(ctx context.Context, userID, reminderID int64) error {
	if err := s.userReminders(userID).Delete(ctx, reminderID); err != nil {
		return notFound(err, ErrReminderNotFound)
	}
	return nil
}

// PendingReminders returns up to limit unsent reminders due at or before
// now across all users, leaving out the ids in skip. Inside a transaction
// the rows stay locked and rows locked by another dispatcher are skipped.
func (s *Store) PendingReminders(ctx context.Context, now time.Time, limit uint64, skip ...int64) ([]models.Reminder, error) {
	q := s.reminders.Query(ctx).
		Where(models.ReminderColumns.ReminderTime.Until(now)).
		Where(models.ReminderColumns.IsSent.IsFalse())
	if len(skip) > 0 {
		q = q.Where(models.ReminderColumns.ID.NotIn(skip...))
	}

	return q.OrderBy(models.ReminderColumns.ReminderTime.Asc(), models.ReminderColumns.ID.Asc()).
		Limit(limit).
		ForUpdate(true).
		Find()
}

// MarkSent flips is_sent on an unsent reminder. It reports false when the
// reminder was already sent or no longer exists.
func (s *Store) MarkSent(ctx context.Context, reminderID int64) (bool, error) {
	affected, err := s.reminders.Query(ctx).
		Where(models.ReminderColumns.ID.Eq(reminderID)).
		Where(models.ReminderColumns.IsSent.IsFalse()).
		Update(map[string]interface{}{"is_sent": true})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
