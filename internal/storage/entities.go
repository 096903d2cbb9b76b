package storage

import "time"

// Profile holds the public part of a user record
type Profile struct {
	Username  string
	FirstName string
	LastName  string
	Phone     string
}

type User struct {
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	JoinedAt     time.Time
	LastLoginAt  time.Time
}

// Profile strips credentials from u
func (u User) Profile() Profile {
	return Profile{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// Message is a single direct message. ReadAt is nil until the recipient marks it read.
// Sender and Recipient are filled only by queries joining the users table.
type Message struct {
	ID           int64
	FromUsername string
	ToUsername   string
	Body         string
	SentAt       time.Time
	ReadAt       *time.Time

	Sender    Profile
	Recipient Profile
}
