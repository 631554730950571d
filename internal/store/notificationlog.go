// Package store persists notification outcomes to Postgres. The log is
// optional; the monitor runs fine without a database configured.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightears/zonewatch/internal/notify"
)

// Entry is one row of the notification log.
type Entry struct {
	Channel    string
	Recipient  string
	MessageID  string
	Status     string // sent, failed
	Error      string
	DurationMS int64
	SentAt     time.Time
}

// NotificationLog records dispatch results in the notification_log table.
type NotificationLog struct {
	db *pgxpool.Pool
}

// Open connects the pool and makes sure the schema exists.
func Open(ctx context.Context, dsn string) (*NotificationLog, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	l := &NotificationLog{db: pool}
	if err := l.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return l, nil
}

// NewNotificationLog wraps an existing pool (tests inject their own).
func NewNotificationLog(db *pgxpool.Pool) *NotificationLog {
	return &NotificationLog{db: db}
}

// EnsureSchema creates the notification_log table when absent.
func (l *NotificationLog) EnsureSchema(ctx context.Context) error {
	_, err := l.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS notification_log (
			id          BIGSERIAL PRIMARY KEY,
			channel     TEXT NOT NULL,
			recipient   TEXT NOT NULL,
			message_id  TEXT,
			status      TEXT NOT NULL,
			error       TEXT,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			sent_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Record inserts one entry.
func (l *NotificationLog) Record(ctx context.Context, e Entry) error {
	_, err := l.db.Exec(ctx, `
		INSERT INTO notification_log (channel, recipient, message_id, status, error, duration_ms, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.Channel, e.Recipient, e.MessageID, e.Status, e.Error, e.DurationMS, e.SentAt)
	return err
}

// RecordResult converts a dispatch Result into an Entry and inserts it.
func (l *NotificationLog) RecordResult(ctx context.Context, r notify.Result) error {
	e := Entry{
		Channel:    r.Channel,
		Recipient:  r.Recipient,
		MessageID:  r.MessageID,
		Status:     "sent",
		DurationMS: r.Duration.Milliseconds(),
		SentAt:     time.Now().UTC(),
	}
	if !r.OK() {
		e.Status = "failed"
		e.Error = r.Err.Error()
	}
	return l.Record(ctx, e)
}

// Close releases the pool.
func (l *NotificationLog) Close() {
	l.db.Close()
}
