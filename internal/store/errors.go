package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eleven-am/tasknest/internal/orm"
)

var (
	ErrUsernameTaken    = errors.New("username already exists")
	ErrEmailTaken       = errors.New("email already registered")
	ErrUserNotFound     = errors.New("user not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrReminderNotFound = errors.New("reminder not found")
	ErrExamNotFound     = errors.New("exam not found")
)

// Constraint names from the users table definition.
const (
	constraintUniqueUsername = "uk_users_username"
	constraintUniqueEmail    = "uk_users_email"
)

// notFound replaces a missing-row error with the domain sentinel. The
// original error stays in the chain.
func notFound(err error, sentinel error) error {
	if errors.Is(err, orm.ErrNotFound) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

// userConflict maps a unique violation on users to the field that clashed.
func userConflict(err error) error {
	if !errors.Is(err, orm.ErrDuplicateKey) {
		return err
	}

	switch orm.GetConstraintName(err) {
	case constraintUniqueUsername:
		return fmt.Errorf("%w: %w", ErrUsernameTaken, err)
	case constraintUniqueEmail:
		return fmt.Errorf("%w: %w", ErrEmailTaken, err)
	}
	return err
}

// missingParent maps a foreign key violation to the parent that was not
// found. PostgreSQL names foreign keys <table>_<column>_fkey.
func missingParent(err error) error {
	if !errors.Is(err, orm.ErrForeignKey) {
		return err
	}

	constraint := orm.GetConstraintName(err)
	switch {
	case strings.Contains(constraint, "task_id"):
		return fmt.Errorf("%w: %w", ErrTaskNotFound, err)
	case strings.Contains(constraint, "user_id"), constraint == "":
		return fmt.Errorf("%w: %w", ErrUserNotFound, err)
	}
	return err
}
