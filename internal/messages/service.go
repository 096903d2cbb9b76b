package messages

import (
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"messagely/internal/storage"
	"time"
)

var (
	ErrNotFound          = errors.New("message not found")
	ErrRecipientNotFound = errors.New("recipient user not found")
	ErrForbidden         = errors.New("not allowed to access message")
	ErrEmptyBody         = errors.New("message body is empty")
)

// Store is the part of the message store used by Service
type Store interface {
	UserByUsername(ctx context.Context, username string) (storage.User, error)
	MessageByID(ctx context.Context, id int64) (storage.Message, error)
	CreateMessage(ctx context.Context, from, to, body string) (storage.Message, error)
	SetMessageRead(ctx context.Context, id int64, recipient string, at time.Time) (storage.Message, error)
	MessagesFrom(ctx context.Context, username string) ([]storage.Message, error)
	MessagesTo(ctx context.Context, username string) ([]storage.Message, error)
}

// Service applies the visibility rules to every message operation
type Service struct {
	logger *zap.SugaredLogger
	store  Store
	now    func() time.Time
}

func NewService(logger *zap.SugaredLogger, store Store) *Service {
	return &Service{
		logger: logger,
		store:  store,
		now:    time.Now,
	}
}

// Get returns message id if requester took part in it
func (s *Service) Get(ctx context.Context, id int64, requester string) (storage.Message, error) {
	m, err := s.fetch(ctx, id)
	if err != nil {
		return storage.Message{}, err
	}

	if !CanRead(m, requester) {
		return storage.Message{}, ErrForbidden
	}

	return m, nil
}

// Send creates message from sender to recipient after checking that recipient exists
func (s *Service) Send(ctx context.Context, from, to, body string) (storage.Message, error) {
	if body == "" {
		return storage.Message{}, ErrEmptyBody
	}

	if _, err := s.store.UserByUsername(ctx, to); err != nil {
		if errors.Is(err, storage.ErrUserNotExist) {
			return storage.Message{}, ErrRecipientNotFound
		}
		return storage.Message{}, fmt.Errorf("s.store.UserByUsername: %w", err)
	}

	m, err := s.store.CreateMessage(ctx, from, to, body)
	if err != nil {
		// the foreign key rejects a recipient missing at insert time
		if errors.Is(err, storage.ErrUserNotExist) {
			return storage.Message{}, ErrRecipientNotFound
		}
		return storage.Message{}, fmt.Errorf("s.store.CreateMessage: %w", err)
	}

	return m, nil
}

// MarkRead transitions message id to read on behalf of requester.
// It reports whether this call performed the transition; a message that was already read
// is returned unchanged with its first read time.
func (s *Service) MarkRead(ctx context.Context, id int64, requester string) (storage.Message, bool, error) {
	m, err := s.fetch(ctx, id)
	if err != nil {
		return storage.Message{}, false, err
	}

	if !CanMarkRead(m, requester) {
		return storage.Message{}, false, ErrForbidden
	}

	updated, err := s.store.SetMessageRead(ctx, id, requester, s.now())
	if err == nil {
		s.logger.Debugf("Message (id: %d) marked read by user (%s)", id, requester)
		return updated, true, nil
	}
	if !errors.Is(err, storage.ErrMessageNotUpdated) {
		return storage.Message{}, false, fmt.Errorf("s.store.SetMessageRead: %w", err)
	}

	// somebody already set read_at, report the stored value
	m, err = s.fetch(ctx, id)
	if err != nil {
		return storage.Message{}, false, err
	}
	if !CanMarkRead(m, requester) || m.ReadAt == nil {
		return storage.Message{}, false, ErrForbidden
	}

	return m, false, nil
}

// Inbox returns messages addressed to username. Only the user themself may list them.
func (s *Service) Inbox(ctx context.Context, username, requester string) ([]storage.Message, error) {
	if username != requester {
		return nil, ErrForbidden
	}

	messages, err := s.store.MessagesTo(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("s.store.MessagesTo: %w", err)
	}
	return messages, nil
}

// Outbox returns messages sent by username. Only the user themself may list them.
func (s *Service) Outbox(ctx context.Context, username, requester string) ([]storage.Message, error) {
	if username != requester {
		return nil, ErrForbidden
	}

	messages, err := s.store.MessagesFrom(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("s.store.MessagesFrom: %w", err)
	}
	return messages, nil
}

func (s *Service) fetch(ctx context.Context, id int64) (storage.Message, error) {
	m, err := s.store.MessageByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotExist) {
			return storage.Message{}, ErrNotFound
		}
		return storage.Message{}, fmt.Errorf("s.store.MessageByID: %w", err)
	}
	return m, nil
}
