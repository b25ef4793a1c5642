package models

import "time"

// UsageStats is a derived view over otp_events plus the account counters.
// It is computed on demand and never stored.
type UsageStats struct {
	TotalOTPs  int64
	TodayOTPs  int64
	CreatedAt  time.Time
	LastActive time.Time
	Recent     []OTPEvent
	Monitoring bool
}

// Snapshot is one periodic system_stats row.
type Snapshot struct {
	ID            int64     `db:"id"`
	TotalUsers    int64     `db:"total_users"`
	ActiveUsers   int64     `db:"active_users"`
	TotalOTPToday int64     `db:"total_otps_today"`
	RecordedAt    time.Time `db:"recorded_at"`
}
