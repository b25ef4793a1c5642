// Package mailbox provides the IMAP collaborator behind small interfaces so
// the monitoring engine can be exercised without a live server.
package mailbox

import (
	"context"
	"time"
)

// Message is a decoded inbox message.
type Message struct {
	ID         uint32 // IMAP UID, the dedup identifier
	SenderName string
	SenderAddr string
	Subject    string
	BodyText   string
	BodyHTML   string
	Date       time.Time
}

// Session is one authenticated, selected mailbox connection. Poll cycles
// never hold a session across cycles: open, scan, close.
type Session interface {
	// MessageCount returns the total message count of the selected mailbox.
	MessageCount() (uint32, error)
	// SearchUnseenSince returns identifiers of unread messages dated on or
	// after the given day, in mailbox order (oldest first).
	SearchUnseenSince(since time.Time) ([]uint32, error)
	// Fetch retrieves and decodes a full message by identifier.
	Fetch(id uint32) (*Message, error)
	Close() error
}

// Dialer opens an authenticated session for a mailbox credential. A failed
// Dial is the live authentication probe result during onboarding.
type Dialer interface {
	Dial(ctx context.Context, address, password string) (Session, error)
}
