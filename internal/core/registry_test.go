package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestRegistryReportValidation(t *testing.T) {
	reg := NewRegistry("")
	c := NewClient("a", "", 0)

	cases := []struct {
		name string
		rep  LocationReport
	}{
		{"missing latitude", LocationReport{Longitude: ptr(1), DeviceName: "x"}},
		{"missing longitude", LocationReport{Latitude: ptr(1), DeviceName: "x"}},
		{"zero latitude", LocationReport{Latitude: ptr(0), Longitude: ptr(1), DeviceName: "x"}},
		{"nan longitude", LocationReport{Latitude: ptr(1), Longitude: ptr(math.NaN()), DeviceName: "x"}},
		{"missing name", LocationReport{Latitude: ptr(1), Longitude: ptr(1)}},
		{"markup only name", LocationReport{Latitude: ptr(1), Longitude: ptr(1), DeviceName: "<br/>"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := reg.ReportLocation(c, tc.rep)
			if !errors.Is(err, ErrInvalidLocation) {
				t.Fatalf("expected ErrInvalidLocation, got %v", err)
			}
		})
	}
	if len(reg.Snapshot(DefaultRoom)) != 0 {
		t.Fatalf("rejected reports must not be stored")
	}
}

func TestRegistryReportKeepsJoinedAt(t *testing.T) {
	reg := NewRegistry("")
	clock := time.Unix(100, 0)
	reg.now = func() time.Time { return clock }
	c := NewClient("a", "", 0)

	_, first, err := reg.ReportLocation(c, LocationReport{Latitude: ptr(1), Longitude: ptr(2), DeviceName: "x"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	clock = clock.Add(time.Minute)
	view, second, err := reg.ReportLocation(c, LocationReport{
		Latitude:   ptr(3),
		Longitude:  ptr(4),
		DeviceName: "x",
		DeviceInfo: json.RawMessage(`{"os":"android"}`),
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !second.Device.JoinedAt.Equal(first.Device.JoinedAt) {
		t.Fatalf("joinedAt changed: %v -> %v", first.Device.JoinedAt, second.Device.JoinedAt)
	}
	if !second.Device.LastUpdate.Equal(clock) {
		t.Fatalf("lastUpdate not refreshed: %v", second.Device.LastUpdate)
	}
	if view.UserCount != 1 || view.Devices[0].Device.Latitude != 3 {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestRegistryDefaultsDeviceInfo(t *testing.T) {
	reg := NewRegistry("")
	c := NewClient("a", "", 0)
	_, entry, err := reg.ReportLocation(c, LocationReport{Latitude: ptr(1), Longitude: ptr(2), DeviceName: "x"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if string(entry.Device.DeviceInfo) != "{}" {
		t.Fatalf("expected empty document, got %s", entry.Device.DeviceInfo)
	}
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	reg := NewRegistry("fleet")
	c := NewClient("a", "", 0)
	reg.Join(c, "")
	if c.Room() != "fleet" {
		t.Fatalf("expected configured default room, got %q", c.Room())
	}

	res := reg.Remove("a")
	if !res.Member || res.Device != nil {
		t.Fatalf("unexpected first removal: %+v", res)
	}
	if res := reg.Remove("a"); res.Member {
		t.Fatalf("second removal reported: %+v", res)
	}
	if len(reg.Stats()) != 0 {
		t.Fatalf("empty rooms must be dropped")
	}
}

func TestRegistryRemoveReportsDevice(t *testing.T) {
	reg := NewRegistry("")
	c := NewClient("a", "", 0)
	if _, _, err := reg.ReportLocation(c, LocationReport{Latitude: ptr(1), Longitude: ptr(2), DeviceName: "x"}); err != nil {
		t.Fatalf("report: %v", err)
	}
	res := reg.Remove("a")
	if res.Device == nil || res.Device.Device.DeviceName != "x" || res.Room != DefaultRoom {
		t.Fatalf("unexpected removal: %+v", res)
	}
}

func TestRegistryLookupIsolation(t *testing.T) {
	reg := NewRegistry("")
	rooms := []string{"r1", "r2", "r3"}
	clients := make([]*Client, len(rooms))
	for i, room := range rooms {
		c := NewClient(room+"-c", "", 0)
		reg.Join(c, room)
		if _, _, err := reg.ReportLocation(c, LocationReport{Latitude: ptr(1), Longitude: ptr(1), DeviceName: room}); err != nil {
			t.Fatalf("report: %v", err)
		}
		clients[i] = c
	}

	for _, from := range clients {
		for _, to := range clients {
			entry, err := reg.Lookup(from.ID, to.ID)
			if from == to {
				if err != nil || entry.ID != to.ID {
					t.Fatalf("self lookup failed for %s: %v", from.ID, err)
				}
				continue
			}
			if !errors.Is(err, ErrDeviceNotFound) {
				t.Fatalf("%s saw %s across rooms", from.ID, to.ID)
			}
		}
	}
}

func TestRegistryJoinSameRoomIsNoop(t *testing.T) {
	reg := NewRegistry("")
	c := NewClient("a", "", 0)
	reg.Join(c, "r1")
	if _, _, err := reg.ReportLocation(c, LocationReport{Latitude: ptr(1), Longitude: ptr(1), DeviceName: "x"}); err != nil {
		t.Fatalf("report: %v", err)
	}
	res := reg.Join(c, "r1")
	if res.Moved || res.Departed != nil {
		t.Fatalf("unexpected move: %+v", res)
	}
	if len(reg.Snapshot("r1")) != 1 {
		t.Fatalf("snapshot dropped on rejoin")
	}

	res = reg.Join(c, "r2")
	if !res.Moved || res.Previous != "r1" || res.Departed == nil {
		t.Fatalf("expected move from r1: %+v", res)
	}
	if len(reg.Snapshot("r1")) != 0 || len(reg.Snapshot("r2")) != 0 {
		t.Fatalf("snapshot must not follow the move")
	}
}
