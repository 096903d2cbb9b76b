package storage

import (
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestDSN(t *testing.T) {
	config := Config{
		User:     "a",
		Password: "b",
		Host:     "c",
		Port:     5432,
		DBName:   "d",
	}
	expected := "user='a' password='b' host='c' port=5432 dbname='d' sslmode=disable"
	actual := config.DSN()
	require.Equal(t, expected, actual)
}

func TestDSNSpecialCharacters(t *testing.T) {
	config := Config{
		User:     "app user",
		Password: `p a'ss\word=`,
		Host:     "localhost",
		Port:     5432,
		DBName:   "d",
	}

	poolConfig, err := pgxpool.ParseConfig(config.DSN())
	require.NoError(t, err)
	require.Equal(t, "app user", poolConfig.ConnConfig.User)
	require.Equal(t, `p a'ss\word=`, poolConfig.ConnConfig.Password)
	require.Equal(t, "d", poolConfig.ConnConfig.Database)
}

func TestOptions(t *testing.T) {
	poolConfig, err := pgxpool.ParseConfig(Config{User: "a", Password: "b", Host: "c", Port: 5432, DBName: "d"}.DSN())
	require.NoError(t, err)

	for _, opt := range []Option{ConnectionTimeout(3 * time.Second), MaxConns(7)} {
		opt.apply(poolConfig)
	}

	require.Equal(t, 3*time.Second, poolConfig.ConnConfig.ConnectTimeout)
	require.Equal(t, int32(7), poolConfig.MaxConns)
}
