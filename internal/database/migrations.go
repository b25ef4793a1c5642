package database

const schema = `
CREATE TABLE IF NOT EXISTS users (
    chat_id INTEGER PRIMARY KEY,
    username TEXT,
    first_name TEXT,
    email TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    total_otps INTEGER DEFAULT 0,
    is_active BOOLEAN DEFAULT true,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    last_active DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS otp_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chat_id INTEGER NOT NULL,
    sender_email TEXT,
    sender_name TEXT,
    otp_code TEXT NOT NULL,
    subject TEXT,
    detection_time_ms INTEGER,
    forwarded_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS system_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    total_users INTEGER,
    active_users INTEGER,
    total_otps_today INTEGER,
    recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_users_active ON users(is_active);
CREATE INDEX IF NOT EXISTS idx_events_chat ON otp_events(chat_id);
CREATE INDEX IF NOT EXISTS idx_events_forwarded ON otp_events(forwarded_at);
`
