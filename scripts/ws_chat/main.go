package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/proto"
)

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	device := flag.String("device", "cli-device", "device name shown to the room")
	room := flag.String("room", "public", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, err := json.Marshal(proto.JoinRoomData{Room: *room, DeviceName: *device})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoinRoom, ID: "join", Data: joinPayload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s as %s in room %s\n", *addr, *device, *room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if f.Type == proto.OutboundTypeError && f.Error != nil {
			fmt.Printf("error %s: %s\n", f.Error.Code, f.Error.Msg)
			continue
		}
		if f.Type != proto.OutboundTypeEvent {
			continue
		}

		switch f.Event {
		case proto.EventChatMessage:
			var evt proto.ChatEventData
			if err := json.Unmarshal(f.Data, &evt); err != nil {
				log.Printf("unmarshal chat-message: %v", err)
				continue
			}
			fmt.Printf("[%s] %s: %s\n", evt.Room, evt.Sender, evt.Text)
		case proto.EventJoinedRoom:
			var evt proto.JoinedRoomData
			if err := json.Unmarshal(f.Data, &evt); err != nil {
				log.Printf("unmarshal joined-room: %v", err)
				continue
			}
			fmt.Printf("[room %s] joined, %d devices online\n", evt.Room, evt.UserCount)
		case proto.EventUserDisconnect:
			var evt proto.PeerData
			if err := json.Unmarshal(f.Data, &evt); err != nil {
				log.Printf("unmarshal user-disconnect: %v", err)
				continue
			}
			fmt.Printf("%s left\n", evt.UserName)
		case proto.EventSOSAlert:
			var evt proto.SOSEventData
			if err := json.Unmarshal(f.Data, &evt); err != nil {
				log.Printf("unmarshal sos-alert: %v", err)
				continue
			}
			fmt.Printf("!!! SOS from %s at %.5f,%.5f\n", evt.Sender, evt.Location.Latitude, evt.Location.Longitude)
		case proto.EventUpdateUserCount, proto.EventUpdateDeviceList, proto.EventReceiveLocation:
			// presence noise
		default:
			fmt.Printf("event=%s data=%s\n", f.Event, f.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			payload, err := json.Marshal(proto.ChatData{Text: text})
			if err != nil {
				log.Printf("marshal chat-message: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeChatMessage, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
