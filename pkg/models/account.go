package models

import "time"

// Account represents a registered chat session and its monitored mailbox.
// The mailbox credential itself is never stored here: only an audit digest
// survives a restart, so a loaded account is dormant until the user logs in
// again.
type Account struct {
	ChatID       int64     `db:"chat_id"`       // Telegram chat ID, primary key
	Username     string    `db:"username"`      // Telegram @username, may be empty
	FirstName    string    `db:"first_name"`    // Telegram display name
	Email        string    `db:"email"`         // monitored mailbox address
	PasswordHash string    `db:"password_hash"` // salted SHA-256 digest, audit only
	TotalOTPs    int64     `db:"total_otps"`    // lifetime forwarded codes
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	LastActive   time.Time `db:"last_active"`
}

// Profile carries the optional Telegram identity captured at registration.
type Profile struct {
	Username  string
	FirstName string
}
