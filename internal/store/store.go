// Package store persists TaskNest users, tasks, reminders, progress and
// exams. Every user-facing operation is scoped to the owning user.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/orm"
)

type Store struct {
	exec      orm.DBExecutor
	txm       *orm.TransactionManager
	users     *orm.Repository[models.User]
	tasks     *orm.Repository[models.Task]
	reminders *orm.Repository[models.Reminder]
	progress  *orm.Repository[models.Progress]
	exams     *orm.Repository[models.Exam]
	validate  *validator.Validate
	now       func() time.Time
	log       logger.Logger
	logQuery  bool
}

type Option func(*Store)

// WithClock replaces the time source used for deadlines and timestamps the
// store writes itself.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithLogger(log logger.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// WithQueryLogging logs every statement at debug level.
func WithQueryLogging() Option {
	return func(s *Store) {
		s.logQuery = true
	}
}

// New builds a store over the connection pool.
func New(db *sqlx.DB, opts ...Option) (*Store, error) {
	s := &Store{
		exec:     db,
		txm:      orm.NewTransactionManager(db),
		validate: NewValidator(),
		now:      time.Now,
		log:      logger.Store(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.users, err = newRepository[models.User](db); err != nil {
		return nil, err
	}
	if s.tasks, err = newRepository[models.Task](db); err != nil {
		return nil, err
	}
	if s.reminders, err = newRepository[models.Reminder](db); err != nil {
		return nil, err
	}
	if s.progress, err = newRepository[models.Progress](db); err != nil {
		return nil, err
	}
	if s.exams, err = newRepository[models.Exam](db); err != nil {
		return nil, err
	}

	if s.logQuery {
		mw := orm.LoggingMiddleware(s.log)
		s.users.AddMiddleware(mw)
		s.tasks.AddMiddleware(mw)
		s.reminders.AddMiddleware(mw)
		s.progress.AddMiddleware(mw)
		s.exams.AddMiddleware(mw)
	}

	return s, nil
}

func newRepository[T any](db orm.DBExecutor) (*orm.Repository[T], error) {
	metadata, err := orm.MetadataFor[T]()
	if err != nil {
		return nil, err
	}
	repo, err := orm.NewRepository[T](db, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s repository: %w", metadata.TableName, err)
	}
	return repo, nil
}

// WithTransaction runs fn against a store bound to a single transaction.
// Calls made on a store that is already inside a transaction reuse it.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *Store) error) error {
	if orm.IsTransaction(s.exec) {
		return fn(s)
	}

	return s.txm.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return fn(s.withExecutor(tx))
	})
}

func (s *Store) withExecutor(exec orm.DBExecutor) *Store {
	clone := *s
	clone.exec = exec
	clone.users = s.users.WithExecutor(exec)
	clone.tasks = s.tasks.WithExecutor(exec)
	clone.reminders = s.reminders.WithExecutor(exec)
	clone.progress = s.progress.WithExecutor(exec)
	clone.exams = s.exams.WithExecutor(exec)
	return &clone
}

// Now is the store's current time in UTC.
func (s *Store) Now() time.Time {
	return s.now().UTC()
}

// ownedBy narrows repo to rows whose owner column equals userID.
func ownedBy[T any](repo *orm.Repository[T], owner orm.NumericColumn[int64], userID int64) *orm.Repository[T] {
	return repo.Authorize(func(_ context.Context, q *orm.Query[T]) *orm.Query[T] {
		return q.Where(owner.Eq(userID))
	})
}

func (s *Store) userTasks(userID int64) *orm.Repository[models.Task] {
	return ownedBy(s.tasks, models.TaskColumns.UserID, userID)
}

func (s *Store) userReminders(userID int64) *orm.Repository[models.Reminder] {
	return ownedBy(s.reminders, models.ReminderColumns.UserID, userID)
}

func (s *Store) userProgress(userID int64) *orm.Repository[models.Progress] {
	return ownedBy(s.progress, models.ProgressColumns.UserID, userID)
}

func (s *Store) userExams(userID int64) *orm.Repository[models.Exam] {
	return ownedBy(s.exams, models.ExamColumns.UserID, userID)
}
