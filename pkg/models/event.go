package models

import "time"

// OTPEvent is one forwarded code. Rows are append-only.
type OTPEvent struct {
	ID          int64     `db:"id"`
	ChatID      int64     `db:"chat_id"`
	SenderEmail string    `db:"sender_email"`
	SenderName  string    `db:"sender_name"`
	Code        string    `db:"otp_code"`
	Subject     string    `db:"subject"`
	DetectionMS int64     `db:"detection_time_ms"` // poll-cycle start to dispatch
	ForwardedAt time.Time `db:"forwarded_at"`
}
