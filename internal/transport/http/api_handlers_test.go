package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/auth"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/core"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/store"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/store/sqlite"
)

func get(t *testing.T, ts *httptest.Server, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestICEServers(t *testing.T) {
	ts, _ := startTestServer(t, testConfig(), nil)

	resp := get(t, ts, "/api/ice-servers", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var body ICEServersResponse
	decodeBody(t, resp, &body)
	if len(body.ICEServers) != 1 || body.ICEServers[0].URLs[0] != "stun:stun.l.google.com:19302" {
		t.Fatalf("unexpected ice servers: %+v", body)
	}
}

func TestRoomsUnguardedWithoutSecret(t *testing.T) {
	ts, hub := startTestServer(t, testConfig(), nil)

	c := core.NewClient("a", "", 0)
	hub.RegisterClient(c)
	hub.Dispatch(c, &core.Command{Kind: core.CommandJoinRoom, Room: "fleet1", DeviceName: "A"})

	resp := get(t, ts, "/api/rooms", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var body RoomsResponse
	decodeBody(t, resp, &body)
	if body.Connections != 1 || len(body.Rooms) != 1 || body.Rooms[0].Name != "fleet1" || body.Rooms[0].Members != 1 {
		t.Fatalf("unexpected rooms: %+v", body)
	}
}

func TestRoomsRequireOperatorToken(t *testing.T) {
	cfg := testConfig()
	cfg.OperatorSecret = "operator-secret"
	ts, _ := startTestServer(t, cfg, nil)

	jwtCfg := &auth.JWTConfig{Secret: []byte(cfg.OperatorSecret), Issuer: cfg.OperatorIssuer, TTL: time.Hour}
	valid, err := auth.GenerateToken(jwtCfg, "ops")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	unscoped, err := auth.GenerateToken(jwtCfg, "ops", "alerts:none")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "abc", http.StatusUnauthorized},
		{"wrong scope", unscoped, http.StatusForbidden},
		{"valid", valid, http.StatusOK},
	}
	for _, tc := range cases {
		if resp := get(t, ts, "/api/rooms", tc.token); resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, resp.StatusCode)
		}
	}

	// public routes stay open
	if resp := get(t, ts, "/api/ice-servers", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("ice servers guarded: %d", resp.StatusCode)
	}
}

func TestListAlerts(t *testing.T) {
	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"sos-1", "sos-2", "sos-3"} {
		a := store.Alert{ID: id, Room: "fleet1", Sender: "A", SenderID: "a", Latitude: 1, Longitude: 2, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := st.SaveAlert(context.Background(), &a); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	ts, _ := startTestServer(t, testConfig(), st)

	resp := get(t, ts, "/api/rooms/fleet1/alerts?limit=2", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var body AlertsResponse
	decodeBody(t, resp, &body)
	if body.Room != "fleet1" || len(body.Alerts) != 2 || body.Alerts[0].ID != "sos-3" {
		t.Fatalf("unexpected alerts: %+v", body)
	}
	if body.Alerts[0].CreatedAt != "2024-05-01T10:02:00Z" {
		t.Fatalf("unexpected timestamp %q", body.Alerts[0].CreatedAt)
	}

	if resp := get(t, ts, "/api/rooms/fleet1/alerts?limit=abc", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestListAlertsJournalDisabled(t *testing.T) {
	ts, _ := startTestServer(t, testConfig(), nil)
	if resp := get(t, ts, "/api/rooms/fleet1/alerts", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHTTPRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPRatePerMinute = 2
	ts, _ := startTestServer(t, cfg, nil)

	for i := 0; i < 2; i++ {
		if resp := get(t, ts, "/health", ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: unexpected status %d", i, resp.StatusCode)
		}
	}
	if resp := get(t, ts, "/health", ""); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}

func TestHTTPRateLimitIgnoresForwardedFor(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPRatePerMinute = 2
	ts, _ := startTestServer(t, cfg, nil)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		resp, err := ts.Client().Do(req)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("rotating X-Forwarded-For escaped the limit: %v", statuses)
	}
}

func TestWebSocketUpgradeRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPRatePerMinute = 1
	ts, _ := startTestServer(t, cfg, nil)
	dial(t, ts, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, resp, err := websocket.Dial(ctx, strings.Replace(ts.URL, "http", "ws", 1)+"/ws", nil)
	if err == nil {
		conn.CloseNow()
		t.Fatalf("expected second upgrade to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", resp)
	}
}
