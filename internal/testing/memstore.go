package testing

import (
	"context"
	"messagely/internal/storage"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory replacement for storage.Store.
// It mirrors the sentinel errors and the conditional read update of the PostgreSQL implementation.
type MemStore struct {
	mu       sync.Mutex
	users    map[string]storage.User
	messages map[int64]storage.Message
	nextID   int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[string]storage.User),
		messages: make(map[int64]storage.Message),
	}
}

func (s *MemStore) CreateUser(_ context.Context, u storage.User) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username]; ok {
		return storage.User{}, storage.ErrUserExists
	}

	now := time.Now()
	u.JoinedAt = now
	u.LastLoginAt = now
	s.users[u.Username] = u

	return u, nil
}

func (s *MemStore) UserByUsername(_ context.Context, username string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return storage.User{}, storage.ErrUserNotExist
	}
	return u, nil
}

func (s *MemStore) UpdateLastLogin(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return storage.ErrUserNotExist
	}
	u.LastLoginAt = time.Now()
	s.users[username] = u

	return nil
}

func (s *MemStore) Users(_ context.Context) ([]storage.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := make([]storage.Profile, 0, len(s.users))
	for _, u := range s.users {
		profiles = append(profiles, u.Profile())
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Username < profiles[j].Username })

	return profiles, nil
}

func (s *MemStore) CreateMessage(_ context.Context, from, to, body string) (storage.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[from]; !ok {
		return storage.Message{}, storage.ErrUserNotExist
	}
	if _, ok := s.users[to]; !ok {
		return storage.Message{}, storage.ErrUserNotExist
	}

	s.nextID++
	m := storage.Message{
		ID:           s.nextID,
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       time.Now(),
	}
	s.messages[m.ID] = m

	return m, nil
}

func (s *MemStore) MessageByID(_ context.Context, id int64) (storage.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return storage.Message{}, storage.ErrMessageNotExist
	}
	return s.withProfiles(m), nil
}

// SetMessageRead updates read_at under the store lock only when message is addressed to recipient and unread
func (s *MemStore) SetMessageRead(_ context.Context, id int64, recipient string, at time.Time) (storage.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok || m.ToUsername != recipient || m.ReadAt != nil {
		return storage.Message{}, storage.ErrMessageNotUpdated
	}

	readAt := at
	m.ReadAt = &readAt
	s.messages[id] = m

	return m, nil
}

func (s *MemStore) MessagesFrom(_ context.Context, username string) ([]storage.Message, error) {
	return s.filter(func(m storage.Message) bool { return m.FromUsername == username }), nil
}

func (s *MemStore) MessagesTo(_ context.Context, username string) ([]storage.Message, error) {
	return s.filter(func(m storage.Message) bool { return m.ToUsername == username }), nil
}

func (s *MemStore) filter(keep func(storage.Message) bool) []storage.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []storage.Message
	for _, m := range s.messages {
		if keep(m) {
			out = append(out, s.withProfiles(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// withProfiles must be called with s.mu held
func (s *MemStore) withProfiles(m storage.Message) storage.Message {
	m.Sender = s.users[m.FromUsername].Profile()
	m.Recipient = s.users[m.ToUsername].Profile()
	return m
}
