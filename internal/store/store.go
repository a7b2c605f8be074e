package store

import (
	"context"
	"encoding/json"
	"time"
)

// Alert is a journaled SOS alert.
type Alert struct {
	ID         string
	Room       string
	Sender     string
	SenderID   string
	Latitude   float64
	Longitude  float64
	Accuracy   float64
	DeviceInfo json.RawMessage
	IP         string
	Message    string
	CreatedAt  time.Time
}

// Default and maximum page sizes for ListAlerts.
const (
	DefaultAlertLimit = 50
	MaxAlertLimit     = 500
)

// AlertStore defines persistence for the SOS journal.
type AlertStore interface {
	// SaveAlert appends an alert. IDs are unique; saving the same id twice is a no-op.
	SaveAlert(ctx context.Context, alert *Alert) error
	// ListAlerts returns the newest alerts of room first. A non-positive
	// limit selects DefaultAlertLimit; larger limits are capped at MaxAlertLimit.
	ListAlerts(ctx context.Context, room string, limit int) ([]Alert, error)
	Close() error
}

// ClampLimit normalizes a page size for ListAlerts.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultAlertLimit
	case limit > MaxAlertLimit:
		return MaxAlertLimit
	default:
		return limit
	}
}
