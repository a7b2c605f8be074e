package admin

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/auth"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/config"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/core"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/store"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/store/sqlite"
	transporthttp "github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/transport/http"
)

func startServer(t *testing.T, cfg config.Config, alerts store.AlertStore) (*httptest.Server, *core.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := core.NewHub(core.HubConfig{DefaultRoom: cfg.DefaultRoom})
	srv := transporthttp.NewServer(hub, alerts, &cfg, nil)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(srv.StopBackground)
	return ts, hub
}

func TestRoomsAndRender(t *testing.T) {
	cfg := config.Default()
	cfg.OperatorSecret = "s3cret"
	ts, hub := startServer(t, cfg, nil)

	a := core.NewClient("a", "", 8)
	b := core.NewClient("b", "", 8)
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	hub.Dispatch(a, &core.Command{Kind: core.CommandJoinRoom, Room: "fleet1", DeviceName: "Truck-1"})
	hub.Dispatch(b, &core.Command{Kind: core.CommandJoinRoom, Room: "fleet1", DeviceName: "Truck-2"})

	token, err := auth.GenerateToken(&auth.JWTConfig{
		Secret: []byte(cfg.OperatorSecret),
		Issuer: cfg.OperatorIssuer,
		TTL:    time.Minute,
	}, "cli")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	rooms, err := NewClient(ts.URL+"/", token, nil).Rooms(context.Background())
	if err != nil {
		t.Fatalf("rooms: %v", err)
	}
	if rooms.Connections != 2 || len(rooms.Rooms) != 1 || rooms.Rooms[0].Members != 2 {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}

	var buf bytes.Buffer
	RenderRooms(&buf, rooms)
	out := buf.String()
	if !strings.Contains(out, "fleet1") || !strings.Contains(out, "2 connections") {
		t.Fatalf("unexpected table:\n%s", out)
	}
}

func TestRoomsUnauthorized(t *testing.T) {
	cfg := config.Default()
	cfg.OperatorSecret = "s3cret"
	ts, _ := startServer(t, cfg, nil)

	_, err := NewClient(ts.URL, "", nil).Rooms(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAlertsAndRender(t *testing.T) {
	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	alert := store.Alert{
		ID:        "sos-1",
		Room:      "fleet 1",
		Sender:    "Truck-1",
		Latitude:  12.5,
		Longitude: 34.25,
		IP:        "203.0.113.7",
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := st.SaveAlert(context.Background(), &alert); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ts, _ := startServer(t, config.Default(), st)
	client := NewClient(ts.URL, "", nil)

	alerts, err := client.Alerts(context.Background(), "fleet 1", 10)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts.Alerts) != 1 || alerts.Alerts[0].IP != "203.0.113.7" {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}

	var buf bytes.Buffer
	RenderAlerts(&buf, alerts)
	if out := buf.String(); !strings.Contains(out, "12.50000, 34.25000") || !strings.Contains(out, "Truck-1") {
		t.Fatalf("unexpected table:\n%s", out)
	}

	empty, err := client.Alerts(context.Background(), "quiet", 0)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	buf.Reset()
	RenderAlerts(&buf, empty)
	if !strings.Contains(buf.String(), "no alerts") {
		t.Fatalf("expected placeholder row:\n%s", buf.String())
	}
}

func TestAlertsJournalDisabled(t *testing.T) {
	ts, _ := startServer(t, config.Default(), nil)

	_, err := NewClient(ts.URL, "", nil).Alerts(context.Background(), "fleet1", 0)
	if err == nil || !strings.Contains(err.Error(), "alert journal disabled") {
		t.Fatalf("expected journal disabled error, got %v", err)
	}
}
