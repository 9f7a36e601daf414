package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore { return s }

func TestGetUser(t *testing.T) {
	t.Parallel()

	user, err := domain.NewUser("researcher@example.com", "a-long-enough-password")
	require.NoError(t, err)

	svc := NewUserService(newFakeUserStore(user), &sql.DB{}, nil)

	got, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestGetUserByEmail(t *testing.T) {
	t.Parallel()

	user, err := domain.NewUser("researcher@example.com", "a-long-enough-password")
	require.NoError(t, err)

	svc := NewUserService(newFakeUserStore(user), &sql.DB{}, nil)

	got, err := svc.GetUserByEmail(context.Background(), "researcher@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
