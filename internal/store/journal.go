package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/core"
)

const (
	defaultJournalBuffer = 256
	saveTimeout          = 5 * time.Second
)

// Journal appends accepted SOS alerts to an AlertStore in the background.
// Record never blocks the dispatcher: when the queue is full the alert is
// dropped from the journal (it was already delivered to the room).
type Journal struct {
	store AlertStore
	queue chan core.Alert
	log   *zerolog.Logger
}

// NewJournal creates a journal writing to st. A non-positive buffer selects
// the default queue size.
func NewJournal(st AlertStore, buffer int, logger *zerolog.Logger) *Journal {
	if buffer <= 0 {
		buffer = defaultJournalBuffer
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Journal{
		store: st,
		queue: make(chan core.Alert, buffer),
		log:   logger,
	}
}

// Record queues alert for persistence.
func (j *Journal) Record(alert core.Alert) {
	select {
	case j.queue <- alert:
	default:
		j.log.Warn().Str("alert_id", alert.ID).Msg("alert journal full, dropping entry")
	}
}

// Run persists queued alerts until ctx is done, then flushes what is left.
func (j *Journal) Run(ctx context.Context) {
	for {
		select {
		case alert := <-j.queue:
			j.save(context.Background(), alert)
		case <-ctx.Done():
			j.flush()
			return
		}
	}
}

func (j *Journal) flush() {
	for {
		select {
		case alert := <-j.queue:
			j.save(context.Background(), alert)
		default:
			return
		}
	}
}

func (j *Journal) save(parent context.Context, alert core.Alert) {
	ctx, cancel := context.WithTimeout(parent, saveTimeout)
	defer cancel()

	rec := FromCore(alert)
	if err := j.store.SaveAlert(ctx, &rec); err != nil {
		j.log.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to journal alert")
		return
	}
	j.log.Debug().Str("alert_id", alert.ID).Str("room", alert.Room).Msg("alert journaled")
}

// FromCore converts a dispatched alert into its journal form.
func FromCore(a core.Alert) Alert {
	return Alert{
		ID:         a.ID,
		Room:       a.Room,
		Sender:     a.Sender,
		SenderID:   a.SenderID,
		Latitude:   a.Location.Latitude,
		Longitude:  a.Location.Longitude,
		Accuracy:   a.Location.Accuracy,
		DeviceInfo: a.DeviceInfo,
		IP:         a.IP,
		Message:    a.Message,
		CreatedAt:  a.CreatedAt,
	}
}
