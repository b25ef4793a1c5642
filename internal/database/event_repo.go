package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarochkin/otpgram/pkg/models"
)

// InsertEvent appends an OTP event. Events are never mutated or deleted.
func (db *DB) InsertEvent(ctx context.Context, event *models.OTPEvent) error {
	query := `
		INSERT INTO otp_events (chat_id, sender_email, sender_name, otp_code, subject, detection_time_ms, forwarded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if event.ForwardedAt.IsZero() {
		event.ForwardedAt = time.Now()
	}
	result, err := db.ExecContext(ctx, query,
		event.ChatID,
		event.SenderEmail,
		event.SenderName,
		event.Code,
		event.Subject,
		event.DetectionMS,
		event.ForwardedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	event.ID = id
	return nil
}

// RecentEvents returns the latest events for a chat, newest first.
func (db *DB) RecentEvents(ctx context.Context, chatID int64, limit int) ([]models.OTPEvent, error) {
	var events []models.OTPEvent
	query := `SELECT * FROM otp_events WHERE chat_id = ? ORDER BY forwarded_at DESC LIMIT ?`
	err := db.SelectContext(ctx, &events, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	return events, nil
}

// CountEventsToday returns today's event count for a chat (chatID 0 counts all chats).
func (db *DB) CountEventsToday(ctx context.Context, chatID int64) (int64, error) {
	var count int64
	var err error
	if chatID == 0 {
		err = db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM otp_events WHERE DATE(forwarded_at) = DATE('now', 'localtime')`)
	} else {
		err = db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM otp_events WHERE chat_id = ? AND DATE(forwarded_at) = DATE('now', 'localtime')`, chatID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count today's events: %w", err)
	}
	return count, nil
}
