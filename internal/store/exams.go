package store

import (
	"context"
	"time"

	"github.com/eleven-am/tasknest/internal/models"
)

type NewExam struct {
	UserID   int64     `json:"user_id" validate:"required,gt=0"`
	Subject  string    `json:"subject" validate:"required,max=100"`
	ExamDate time.Time `json:"exam_date" validate:"required"`
	ExamType *string   `json:"exam_type" validate:"omitempty,max=50"`
	Location *string   `json:"location" validate:"omitempty,max=100"`
	Notes    *string   `json:"notes"`
}

func (s *Store) CreateExam(ctx context.Context, input NewExam) (*models.Exam, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}

	values := map[string]interface{}{
		"user_id":   input.UserID,
		"subject":   input.Subject,
		"exam_date": input.ExamDate,
	}
	if input.ExamType != nil {
		values["exam_type"] = *input.ExamType
	}
	if input.Location != nil {
		values["location"] = *input.Location
	}
	if input.Notes != nil {
		values["notes"] = *input.Notes
	}

	exam, err := s.exams.Insert(ctx, values)
	if err != nil {
		return nil, missingParent(err)
	}
	return exam, nil
}

// ListExams returns all of the user's exams by date.
func (s *Store) ListExams(ctx context.Context, userID int64) ([]models.Exam, error) {
	return s.userExams(userID).Query(ctx).
		OrderBy(models.ExamColumns.ExamDate.Asc()).
		Find()
}

// UpcomingExams returns up to limit exams from now on. A zero limit returns
// all of them.
func (s *Store) UpcomingExams(ctx context.Context, userID int64, limit uint64) ([]models.Exam, error) {
	q := s.userExams(userID).Query(ctx).
		Where(models.ExamColumns.ExamDate.Since(s.Now())).
		OrderBy(models.ExamColumns.ExamDate.Asc())
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q.Find()
}

func (s *Store) DeleteExam(ctx context.Context, userID, examID int64) error {
	if err := s.userExams(userID).Delete(ctx, examID); err != nil {
		return notFound(err, ErrExamNotFound)
	}
	return nil
}
