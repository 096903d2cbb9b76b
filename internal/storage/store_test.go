package storage

import (
	"context"
	"github.com/caarlos0/env/v6"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"math/rand"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func randString() string {
	var out strings.Builder
	charSet := "abcdedfghijklmnopqrstABCDEFGHIJKLMNOP"
	length := 10
	for i := 0; i < length; i++ {
		random := rand.Intn(len(charSet))
		randomChar := charSet[random]
		out.WriteString(string(randomChar))
	}
	return out.String()
}

// bootstrap connects to the database described by DB_* variables and applies migrations.
// Tests are skipped unless DB_HOST is set.
func bootstrap(t *testing.T) *Store {
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST is not set, skipping storage integration test")
	}

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, env.Parse(&cfg))

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, logger.Sugar(), cfg))

	s, err := New(ctx, logger.Sugar(), cfg, ConnectionTimeout(5*time.Second))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return s
}

func createUser(t *testing.T, s *Store) User {
	u, err := s.CreateUser(context.Background(), User{
		Username:     randString(),
		PasswordHash: "hash",
		FirstName:    "First",
		LastName:     "Last",
		Phone:        "+100000000",
	})
	require.NoError(t, err)
	return u
}

func TestCreateUser(t *testing.T) {
	s := bootstrap(t)

	u := createUser(t, s)
	require.False(t, u.JoinedAt.IsZero())
	require.Equal(t, u.JoinedAt, u.LastLoginAt)

	got, err := s.UserByUsername(context.Background(), u.Username)
	require.NoError(t, err)
	require.Equal(t, "hash", got.PasswordHash)
	require.Equal(t, u.Profile(), got.Profile())
}

func TestCreateUserExists(t *testing.T) {
	s := bootstrap(t)

	u := createUser(t, s)
	_, err := s.CreateUser(context.Background(), u)
	require.Equal(t, ErrUserExists, err)
}

func TestUserByUsernameNotExist(t *testing.T) {
	s := bootstrap(t)

	_, err := s.UserByUsername(context.Background(), randString())
	require.Equal(t, ErrUserNotExist, err)
}

func TestUpdateLastLogin(t *testing.T) {
	s := bootstrap(t)

	u := createUser(t, s)
	require.NoError(t, s.UpdateLastLogin(context.Background(), u.Username))

	got, err := s.UserByUsername(context.Background(), u.Username)
	require.NoError(t, err)
	require.True(t, !got.LastLoginAt.Before(u.LastLoginAt))

	require.Equal(t, ErrUserNotExist, s.UpdateLastLogin(context.Background(), randString()))
}

func TestCreateMessageBadRecipient(t *testing.T) {
	s := bootstrap(t)

	from := createUser(t, s)
	_, err := s.CreateMessage(context.Background(), from.Username, randString(), "Hi There!")
	require.Equal(t, ErrUserNotExist, err)
}

func TestMessageLifecycle(t *testing.T) {
	s := bootstrap(t)
	ctx := context.Background()

	from := createUser(t, s)
	to := createUser(t, s)

	m, err := s.CreateMessage(ctx, from.Username, to.Username, "Hi There!")
	require.NoError(t, err)
	require.NotZero(t, m.ID)

	got, err := s.MessageByID(ctx, m.ID)
	require.NoError(t, err)
	require.Nil(t, got.ReadAt)
	require.Equal(t, from.Profile(), got.Sender)
	require.Equal(t, to.Profile(), got.Recipient)

	// sender can not mark message read
	_, err = s.SetMessageRead(ctx, m.ID, from.Username, time.Now())
	require.Equal(t, ErrMessageNotUpdated, err)

	read, err := s.SetMessageRead(ctx, m.ID, to.Username, time.Now())
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)

	// second transition is refused
	_, err = s.SetMessageRead(ctx, m.ID, to.Username, time.Now())
	require.Equal(t, ErrMessageNotUpdated, err)

	inbox, err := s.MessagesTo(ctx, to.Username)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Equal(t, from.Profile(), inbox[0].Sender)
	require.NotNil(t, inbox[0].ReadAt)

	outbox, err := s.MessagesFrom(ctx, from.Username)
	require.NoError(t, err)
	require.Len(t, outbox, 1)
	require.Equal(t, to.Profile(), outbox[0].Recipient)
}

func TestSetMessageReadConcurrent(t *testing.T) {
	s := bootstrap(t)
	ctx := context.Background()

	from := createUser(t, s)
	to := createUser(t, s)
	m, err := s.CreateMessage(ctx, from.Username, to.Username, "race")
	require.NoError(t, err)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		updated int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.SetMessageRead(ctx, m.ID, to.Username, time.Now()); err == nil {
				mu.Lock()
				updated++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, updated)
}

func TestMessageByIDNotExist(t *testing.T) {
	s := bootstrap(t)

	_, err := s.MessageByID(context.Background(), -1)
	require.Equal(t, ErrMessageNotExist, err)
}
