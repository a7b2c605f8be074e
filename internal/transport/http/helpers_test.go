package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/config"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/core"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/proto"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PingInterval = time.Hour
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config, alerts store.AlertStore) (*httptest.Server, *core.Hub) {
	t.Helper()

	hub := core.NewHub(core.HubConfig{DefaultRoom: cfg.DefaultRoom})
	server := NewServer(hub, alerts, &cfg, nil)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(server.StopBackground)

	return ts, hub
}

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	ctx  context.Context
	id   string
}

func dial(t *testing.T, ts *httptest.Server, opts *websocket.DialOptions) *wsClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, opts)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	c := &wsClient{t: t, conn: conn, ctx: ctx}
	greeting := c.expectEvent(proto.EventConnected)
	var data proto.ConnectedData
	c.decode(greeting.Data, &data)
	if data.ID == "" {
		t.Fatalf("greeting without id: %s", greeting.Data)
	}
	c.id = data.ID
	return c
}

func (c *wsClient) send(typ, id string, data any) {
	c.t.Helper()

	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		raw = b
	}
	if err := wsjson.Write(c.ctx, c.conn, proto.Inbound{Type: typ, ID: id, Data: raw}); err != nil {
		c.t.Fatalf("write %s: %v", typ, err)
	}
}

// expect reads frames until one matches.
func (c *wsClient) expect(match func(frame) bool) frame {
	c.t.Helper()

	ctx, cancel := context.WithTimeout(c.ctx, 2*time.Second)
	defer cancel()
	for {
		var f frame
		if err := wsjson.Read(ctx, c.conn, &f); err != nil {
			c.t.Fatalf("read: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func (c *wsClient) expectEvent(name string) frame {
	c.t.Helper()
	return c.expect(func(f frame) bool { return f.Type == proto.OutboundTypeEvent && f.Event == name })
}

func (c *wsClient) expectReply(id string) frame {
	c.t.Helper()
	return c.expect(func(f frame) bool { return f.Type != proto.OutboundTypeEvent && f.ID == id })
}

func (c *wsClient) decode(raw json.RawMessage, v any) {
	c.t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		c.t.Fatalf("decode %s: %v", raw, err)
	}
}

func (c *wsClient) join(room, name string) {
	c.t.Helper()
	c.send(proto.InboundTypeJoinRoom, "join-"+c.id, proto.JoinRoomData{Room: room, DeviceName: name})
	reply := c.expectReply("join-" + c.id)
	if reply.Type != proto.OutboundTypeAck {
		c.t.Fatalf("join failed: %+v", reply.Error)
	}
}

func (c *wsClient) enterAudio() {
	c.t.Helper()
	c.send(proto.InboundTypeJoinAudio, "", nil)
	c.expectEvent(proto.EventAudioPeers)
}
