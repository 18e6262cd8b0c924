// Package auth registers users and checks their credentials.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/store"
)

// ErrInvalidCredentials is returned for an unknown username or a wrong
// password alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserStore is the part of the store auth needs.
type UserStore interface {
	CreateUser(ctx context.Context, input store.NewUser) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Registration is a sign-up request carrying the plain password.
type Registration struct {
	Username  string  `json:"username" validate:"required,min=3,max=80"`
	Email     string  `json:"email" validate:"required,email,max=120"`
	Password  string  `json:"password" validate:"required,min=6,maxbytes=72"`
	FullName  *string `json:"full_name" validate:"omitempty,max=120"`
	ClassName *string `json:"class_name" validate:"omitempty,max=50"`
}

type Service struct {
	users    UserStore
	validate *validator.Validate
	cost     int
	log      logger.Logger
}

type Option func(*Service)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

func New(users UserStore, opts ...Option) *Service {
	s := &Service{
		users:    users,
		validate: store.NewValidator(),
		cost:     bcrypt.DefaultCost,
		log:      logger.WithField("component", "auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates req, hashes the password and stores the user.
func (s *Service) Register(ctx context.Context, req Registration) (*models.User, error) {
	if err := store.Check(s.validate, req); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password, s.cost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, store.NewUser{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		ClassName:    req.ClassName,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate returns the user when password matches the stored hash.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrUserNotFound) {
		s.log.Debug("login for unknown user", "username", username)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPassword(user.PasswordHash, password) {
		s.log.Debug("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
