package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/core"
)

type memoryStore struct {
	mu     sync.Mutex
	alerts []Alert
	fail   bool
}

func (m *memoryStore) SaveAlert(_ context.Context, a *Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.alerts = append(m.alerts, *a)
	return nil
}

func (m *memoryStore) ListAlerts(context.Context, string, int) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Alert(nil), m.alerts...), nil
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

func TestJournalPersistsInBackground(t *testing.T) {
	st := &memoryStore{}
	j := NewJournal(st, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	j.Record(core.Alert{ID: "sos-1-a", Room: "fleet1", Location: core.GeoPoint{Latitude: 1, Longitude: 2}})

	deadline := time.Now().Add(2 * time.Second)
	for st.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if st.count() != 1 {
		t.Fatalf("expected alert persisted")
	}
	cancel()
	<-done

	got := st.alerts[0]
	if got.ID != "sos-1-a" || got.Latitude != 1 || got.Longitude != 2 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestJournalRecordNeverBlocks(t *testing.T) {
	st := &memoryStore{}
	j := NewJournal(st, 1, nil)

	// no Run: the second record must be dropped, not block
	j.Record(core.Alert{ID: "1"})
	j.Record(core.Alert{ID: "2"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j.Run(ctx)

	if st.count() != 1 || st.alerts[0].ID != "1" {
		t.Fatalf("expected only the first alert flushed, got %+v", st.alerts)
	}
}

func TestJournalSurvivesStoreErrors(t *testing.T) {
	st := &memoryStore{fail: true}
	j := NewJournal(st, 4, nil)
	j.Record(core.Alert{ID: "1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j.Run(ctx)

	if st.count() != 0 {
		t.Fatalf("failed saves must not be recorded")
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{0: DefaultAlertLimit, -3: DefaultAlertLimit, 10: 10, 10000: MaxAlertLimit}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
