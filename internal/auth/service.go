package auth

import (
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"messagely/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
)

// UserStore is the part of the credential store used for registration and login
type UserStore interface {
	UserByUsername(ctx context.Context, username string) (storage.User, error)
	CreateUser(ctx context.Context, u storage.User) (storage.User, error)
	UpdateLastLogin(ctx context.Context, username string) error
}

// Registration holds fields provided by a new user
type Registration struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Service registers and logs in users, handing out tokens
type Service struct {
	logger *zap.SugaredLogger
	store  UserStore
	hasher *Hasher
	tokens *Tokens
}

func NewService(logger *zap.SugaredLogger, store UserStore, hasher *Hasher, tokens *Tokens) *Service {
	return &Service{
		logger: logger,
		store:  store,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates user and returns a token for it
func (s *Service) Register(ctx context.Context, r Registration) (string, error) {
	hash, err := s.hasher.Hash(r.Password)
	if err != nil {
		return "", err
	}

	u, err := s.store.CreateUser(ctx, storage.User{
		Username:     r.Username,
		PasswordHash: hash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Phone:        r.Phone,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return "", ErrUsernameTaken
		}
		return "", fmt.Errorf("s.store.CreateUser: %w", err)
	}

	s.logger.Infof("Registered user (%s)", u.Username)

	return s.tokens.Issue(u.Username)
}

// Login checks username and password and returns a fresh token.
// Unknown username and wrong password both yield ErrInvalidCredentials after the same hashing work.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotExist) {
			s.hasher.VerifyAbsent(password)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("s.store.UserByUsername: %w", err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	if err := s.store.UpdateLastLogin(ctx, u.Username); err != nil {
		return "", fmt.Errorf("s.store.UpdateLastLogin: %w", err)
	}

	return s.tokens.Issue(u.Username)
}
