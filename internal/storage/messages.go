package storage

import (
	"context"
	"errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"time"
)

// CreateMessage stores new unread message and returns it with generated id and sent_at.
// ErrUserNotExist is returned when either side of the message is not a registered user.
func (s *Store) CreateMessage(ctx context.Context, from, to, body string) (Message, error) {
	s.logger.Debugf("Creating message from user (%s) to user (%s)", from, to)

	m := Message{
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
	}
	sql := `insert into messages (from_username, to_username, body, sent_at)
			values ($1, $2, $3, $4)
			returning id, sent_at`
	err := s.db.QueryRow(ctx, sql, from, to, body, time.Now()).Scan(&m.ID, &m.SentAt)
	if err != nil {
		if code, _, ok := pgErrorCode(err); ok && code == pgerrcode.ForeignKeyViolation {
			return Message{}, ErrUserNotExist
		}
		return Message{}, err
	}

	s.logger.Debugf("Created message with id %d", m.ID)

	return m, nil
}

// MessageByID returns message with both sender and recipient profiles
func (s *Store) MessageByID(ctx context.Context, id int64) (Message, error) {
	var (
		m      Message
		readAt pgtype.Timestamptz
	)
	sql := `select m.id, m.body, m.sent_at, m.read_at,
				   f.username, f.first_name, f.last_name, f.phone,
				   t.username, t.first_name, t.last_name, t.phone
			  from messages as m
			  join users as f
				on f.username = m.from_username
			  join users as t
				on t.username = m.to_username
			 where m.id = $1`
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&m.ID, &m.Body, &m.SentAt, &readAt,
		&m.Sender.Username, &m.Sender.FirstName, &m.Sender.LastName, &m.Sender.Phone,
		&m.Recipient.Username, &m.Recipient.FirstName, &m.Recipient.LastName, &m.Recipient.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, ErrMessageNotExist
		}
		return Message{}, err
	}

	m.FromUsername = m.Sender.Username
	m.ToUsername = m.Recipient.Username
	m.ReadAt = nullTime(readAt)

	return m, nil
}

// SetMessageRead marks message as read at provided time in one conditional statement.
// The row is touched only if it is addressed to recipient and still unread,
// otherwise ErrMessageNotUpdated is returned and nothing changes.
func (s *Store) SetMessageRead(ctx context.Context, id int64, recipient string, at time.Time) (Message, error) {
	s.logger.Debugf("Marking message (id: %d) read by user (%s)", id, recipient)

	m := Message{ToUsername: recipient}
	sql := `update messages
			   set read_at = $3
			 where id = $1
			   and to_username = $2
			   and read_at is null
			returning id, from_username, body, sent_at, read_at`
	var readAt time.Time
	err := s.db.QueryRow(ctx, sql, id, recipient, at).Scan(&m.ID, &m.FromUsername, &m.Body, &m.SentAt, &readAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, ErrMessageNotUpdated
		}
		return Message{}, err
	}
	m.ReadAt = &readAt

	return m, nil
}

// MessagesFrom returns messages sent by user with recipient profiles, ordered by sent_at (from earliest to latest)
func (s *Store) MessagesFrom(ctx context.Context, username string) ([]Message, error) {
	s.logger.Debugf("Retrieving messages from user (%s)", username)

	sql := `select m.id, m.body, m.sent_at, m.read_at,
				   u.username, u.first_name, u.last_name, u.phone
			  from messages as m
			  join users as u
				on u.username = m.to_username
			 where m.from_username = $1
			 order by m.sent_at, m.id`

	rows, err := s.queryThread(ctx, sql, username)
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(rows))
	for _, r := range rows {
		r.msg.FromUsername = username
		r.msg.ToUsername = r.counterpart.Username
		r.msg.Recipient = r.counterpart
		messages = append(messages, r.msg)
	}

	s.logger.Debugf("Retrieved %d messages", len(messages))

	return messages, nil
}

// MessagesTo returns messages addressed to user with sender profiles, ordered by sent_at (from earliest to latest)
func (s *Store) MessagesTo(ctx context.Context, username string) ([]Message, error) {
	s.logger.Debugf("Retrieving messages to user (%s)", username)

	sql := `select m.id, m.body, m.sent_at, m.read_at,
				   u.username, u.first_name, u.last_name, u.phone
			  from messages as m
			  join users as u
				on u.username = m.from_username
			 where m.to_username = $1
			 order by m.sent_at, m.id`

	rows, err := s.queryThread(ctx, sql, username)
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(rows))
	for _, r := range rows {
		r.msg.FromUsername = r.counterpart.Username
		r.msg.ToUsername = username
		r.msg.Sender = r.counterpart
		messages = append(messages, r.msg)
	}

	s.logger.Debugf("Retrieved %d messages", len(messages))

	return messages, nil
}

type threadRow struct {
	msg         Message
	counterpart Profile
}

func (s *Store) queryThread(ctx context.Context, sql, username string) ([]threadRow, error) {
	rows, err := s.db.Query(ctx, sql, username)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []threadRow
	for rows.Next() {
		var (
			r      threadRow
			readAt pgtype.Timestamptz
		)
		err = rows.Scan(&r.msg.ID, &r.msg.Body, &r.msg.SentAt, &readAt,
			&r.counterpart.Username, &r.counterpart.FirstName, &r.counterpart.LastName, &r.counterpart.Phone)
		if err != nil {
			return nil, err
		}
		r.msg.ReadAt = nullTime(readAt)
		out = append(out, r)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return out, nil
}
