package store

import (
	"context"

	"github.com/eleven-am/tasknest/internal/models"
)

// NewUser carries an already-hashed password.
type NewUser struct {
	Username     string  `json:"username" validate:"required,min=3,max=80"`
	Email        string  `json:"email" validate:"required,email,max=120"`
	PasswordHash string  `json:"-" validate:"required,max=255"`
	FullName     *string `json:"full_name" validate:"omitempty,max=120"`
	ClassName    *string `json:"class_name" validate:"omitempty,max=50"`
}

// CreateUser inserts a user. A clash on username or email returns
// ErrUsernameTaken or ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, input NewUser) (*models.User, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}

	values := map[string]interface{}{
		"username":      input.Username,
		"email":         input.Email,
		"password_hash": input.PasswordHash,
	}
	if input.FullName != nil {
		values["full_name"] = *input.FullName
	}
	if input.ClassName != nil {
		values["class_name"] = *input.ClassName
	}

	user, err := s.users.Insert(ctx, values)
	if err != nil {
		return nil, userConflict(err)
	}

	s.log.Info("user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.Query(ctx).
		Where(models.UserColumns.Username.Eq(username)).
		First()
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// ListUsers returns every user in id order.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.Query(ctx).
		OrderBy(models.UserColumns.ID.Asc()).
		Find()
}

// DeleteUser removes a user. Their tasks, reminders, progress and exams go
// with them in the same transaction.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	err := s.WithTransaction(ctx, func(tx *Store) error {
		return tx.users.Delete(ctx, id)
	})
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}

	s.log.Info("user deleted", "user_id", id)
	return nil
}
