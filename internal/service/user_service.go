package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/store"
)

// UserService provides researcher account operations.
type UserService interface {
	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// CreateUser creates a new researcher account. The store hashes the
	// password before persisting.
	CreateUser(ctx context.Context, email, password string) (*domain.User, error)

	// UpdateUserPassword replaces a user's password.
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, newPassword string) error

	// DeleteUser removes a researcher account.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type userServiceImpl struct {
	userStore store.UserStore
	db        *sql.DB
	logger    *slog.Logger
}

var _ UserService = (*userServiceImpl)(nil)

// NewUserService creates a UserService.
func NewUserService(userStore store.UserStore, db *sql.DB, logger *slog.Logger) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userServiceImpl{
		userStore: userStore,
		db:        db,
		logger:    logger.With("component", "user_service"),
	}
}

func (s *userServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to retrieve user",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

func (s *userServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("user not found by email")
		} else {
			s.logger.Error("failed to retrieve user by email", "error", err)
		}
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}
	return user, nil
}

func (s *userServiceImpl) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to register an existing email")
		} else {
			s.logger.Error("failed to save user", "error", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID)
	return user, nil
}

func (s *userServiceImpl) UpdateUserPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		// Full object round-trip: the store requires a complete user and
		// hashes a non-empty plaintext Password on update.
		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to retrieve user for password update: %w", err)
		}
		user.Password = newPassword

		if err := txStore.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update user password: %w", err)
		}

		s.logger.Info("user password updated", "user_id", userID)
		return nil
	})
}

func (s *userServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.userStore.WithTx(tx).Delete(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		s.logger.Info("user deleted", "user_id", userID)
		return nil
	})
}
