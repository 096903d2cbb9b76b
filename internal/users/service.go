package users

import (
	"context"
	"errors"
	"fmt"
	"messagely/internal/storage"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrForbidden = errors.New("not allowed to access user")
)

type Store interface {
	Users(ctx context.Context) ([]storage.Profile, error)
	UserByUsername(ctx context.Context, username string) (storage.User, error)
}

// Service exposes the user directory to authenticated users
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// All returns public profiles of every user
func (s *Service) All(ctx context.Context) ([]storage.Profile, error) {
	profiles, err := s.store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.store.Users: %w", err)
	}
	return profiles, nil
}

// Get returns the full record of username with password hash cleared.
// Only the user themself may read it.
func (s *Service) Get(ctx context.Context, username, requester string) (storage.User, error) {
	if username != requester {
		return storage.User{}, ErrForbidden
	}

	u, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotExist) {
			return storage.User{}, ErrNotFound
		}
		return storage.User{}, fmt.Errorf("s.store.UserByUsername: %w", err)
	}
	u.PasswordHash = ""

	return u, nil
}
