package probe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/proto"
)

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// session is one websocket connection to the server.
type session struct {
	name string
	id   string
	conn *websocket.Conn
	log  zerolog.Logger
}

func dialSession(ctx context.Context, url, name string, logger *zerolog.Logger) (*session, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	s := &session{name: name, conn: conn, log: logger.With().Str("session", name).Logger()}

	greeting, err := s.await(ctx, eventIs(proto.EventConnected))
	if err != nil {
		s.close()
		return nil, err
	}
	var data proto.ConnectedData
	if err := json.Unmarshal(greeting.Data, &data); err != nil || data.ID == "" {
		s.close()
		return nil, fmt.Errorf("%s: bad greeting %s", name, greeting.Data)
	}
	s.id = data.ID
	s.log = s.log.With().Str("client_id", s.id).Logger()
	return s, nil
}

func (s *session) join(ctx context.Context, room string) error {
	reqID := "join-" + s.id
	if err := s.send(ctx, proto.InboundTypeJoinRoom, reqID, proto.JoinRoomData{Room: room, DeviceName: s.name}); err != nil {
		return err
	}
	reply, err := s.await(ctx, func(f frame) bool { return f.Type != proto.OutboundTypeEvent && f.ID == reqID })
	if err != nil {
		return err
	}
	if reply.Type != proto.OutboundTypeAck {
		msg := "no reason"
		if reply.Error != nil {
			msg = reply.Error.Msg
		}
		return fmt.Errorf("%s join %q: %w: %s", s.name, room, ErrRejected, msg)
	}
	return nil
}

func (s *session) send(ctx context.Context, typ, id string, data any) error {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		raw = b
	}
	if err := wsjson.Write(ctx, s.conn, proto.Inbound{Type: typ, ID: id, Data: raw}); err != nil {
		return fmt.Errorf("%s write %s: %w", s.name, typ, err)
	}
	return nil
}

// await reads frames until match accepts one. Frames read while waiting are discarded.
func (s *session) await(ctx context.Context, match func(frame) bool) (frame, error) {
	for {
		f, err := s.read(ctx)
		if err != nil {
			return frame{}, err
		}
		if match(f) {
			return f, nil
		}
	}
}

func (s *session) read(ctx context.Context) (frame, error) {
	var f frame
	if err := wsjson.Read(ctx, s.conn, &f); err != nil {
		if ctx.Err() != nil {
			return frame{}, ErrTimeout
		}
		return frame{}, fmt.Errorf("%s read: %w", s.name, err)
	}
	return f, nil
}

func (s *session) close() {
	s.conn.Close(websocket.StatusNormalClosure, "probe done")
}

func eventIs(name string) func(frame) bool {
	return func(f frame) bool { return f.Type == proto.OutboundTypeEvent && f.Event == name }
}
