package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS alerts (
	id          TEXT PRIMARY KEY,
	room        TEXT NOT NULL,
	sender      TEXT NOT NULL,
	sender_id   TEXT NOT NULL,
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	accuracy    REAL NOT NULL DEFAULT 0,
	device_info TEXT NOT NULL DEFAULT '{}',
	ip          TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alerts_room ON alerts(room, created_at DESC);
`

// SQLiteStore implements store.AlertStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.AlertStore = (*SQLiteStore)(nil)

// New opens the SQLite journal at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without touching disk.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate creates the journal tables if they do not exist.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveAlert appends an alert to the journal.
func (s *SQLiteStore) SaveAlert(ctx context.Context, a *store.Alert) error {
	info := a.DeviceInfo
	if len(info) == 0 {
		info = json.RawMessage(`{}`)
	}
	query := `
		INSERT OR IGNORE INTO alerts
			(id, room, sender, sender_id, latitude, longitude, accuracy, device_info, ip, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Room, a.Sender, a.SenderID,
		a.Latitude, a.Longitude, a.Accuracy,
		string(info), a.IP, a.Message, a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// ListAlerts returns the newest alerts of room first.
func (s *SQLiteStore) ListAlerts(ctx context.Context, room string, limit int) ([]store.Alert, error) {
	query := `
		SELECT id, room, sender, sender_id, latitude, longitude, accuracy, device_info, ip, message, created_at
		FROM alerts
		WHERE room = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, room, store.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]store.Alert, 0)
	for rows.Next() {
		var (
			a       store.Alert
			info    string
			created int64
		)
		if err := rows.Scan(
			&a.ID,
			&a.Room,
			&a.Sender,
			&a.SenderID,
			&a.Latitude,
			&a.Longitude,
			&a.Accuracy,
			&info,
			&a.IP,
			&a.Message,
			&created,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.DeviceInfo = json.RawMessage(info)
		a.CreatedAt = time.UnixMilli(created).UTC()
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return alerts, nil
}
