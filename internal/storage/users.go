package storage

import (
	"context"
	"errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"time"
)

// CreateUser inserts u with join and last login timestamps set to the current time
// and returns the stored record.
func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	s.logger.Debugf("Creating user (%s)", u.Username)

	sql := `insert into users (username, password, first_name, last_name, phone, join_at, last_login_at)
			values ($1, $2, $3, $4, $5, $6, $6)
			returning join_at, last_login_at`
	err := s.db.QueryRow(ctx, sql, u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Phone, time.Now()).
		Scan(&u.JoinedAt, &u.LastLoginAt)
	if err != nil {
		if code, _, ok := pgErrorCode(err); ok && code == pgerrcode.UniqueViolation {
			return User{}, ErrUserExists
		}
		return User{}, err
	}

	s.logger.Debugf("Created user (%s)", u.Username)

	return u, nil
}

// UserByUsername returns the full user record including password hash
func (s *Store) UserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	sql := `select username, password, first_name, last_name, phone, join_at, last_login_at
			  from users
			 where username = $1`
	err := s.db.QueryRow(ctx, sql, username).
		Scan(&u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.JoinedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotExist
		}
		return User{}, err
	}

	return u, nil
}

// UpdateLastLogin sets last_login_at of the user to the current time
func (s *Store) UpdateLastLogin(ctx context.Context, username string) error {
	sql := "update users set last_login_at = $2 where username = $1"
	tag, err := s.db.Exec(ctx, sql, username, time.Now())
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotExist
	}

	return nil
}

// Users returns public profiles of all users ordered by username
func (s *Store) Users(ctx context.Context) ([]Profile, error) {
	sql := "select username, first_name, last_name, phone from users order by username"
	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		err = rows.Scan(&p.Username, &p.FirstName, &p.LastName, &p.Phone)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d users", len(profiles))

	return profiles, nil
}
