package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// noEvent fails if an event of kind is queued on ch. Everything queued is
// consumed.
func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			return
		}
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func ptr(v float64) *float64 { return &v }

func newTestHub() *Hub {
	return NewHub(HubConfig{})
}

func connect(h *Hub, id string) *Client {
	c := NewClient(id, "10.0.0."+id, 0)
	h.RegisterClient(c)
	return c
}

func join(t *testing.T, h *Hub, c *Client, room, name string) {
	t.Helper()
	if res := h.Dispatch(c, &Command{Kind: CommandJoinRoom, Room: room, DeviceName: name}); !res.OK() {
		t.Fatalf("join %s: %+v", c.ID, res.Error)
	}
}

func report(h *Hub, c *Client, lat, lng float64, name string) *Result {
	return h.Dispatch(c, &Command{
		Kind: CommandSendLocation,
		Location: &LocationReport{
			Latitude:   ptr(lat),
			Longitude:  ptr(lng),
			DeviceName: name,
		},
	})
}
