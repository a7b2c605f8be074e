package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

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
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	device := flag.String("device", "smoke-device", "device name to join with")
	room := flag.String("room", "smoke", "room name")
	lat := flag.Float64("lat", 23.8103, "latitude to report")
	lng := flag.Float64("lng", 90.4125, "longitude to report")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ, id string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, ID: id, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeJoinRoom, "join-1", proto.JoinRoomData{Room: *room, DeviceName: *device}); err != nil {
		return err
	}

	var self string
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received: type=%s", f.Type)
		if f.Event != "" {
			fmt.Printf(" event=%s", f.Event)
		}
		fmt.Println()
		if f.Error != nil {
			return fmt.Errorf("server error %s: %s", f.Error.Code, f.Error.Msg)
		}

		switch {
		case f.Type == proto.OutboundTypeEvent && f.Event == proto.EventConnected:
			var data proto.ConnectedData
			if err := json.Unmarshal(f.Data, &data); err == nil {
				self = data.ID
				fmt.Printf("Connected: id=%s\n", self)
			}
		case f.Type == proto.OutboundTypeAck && f.ID == "join-1":
			if err := send(proto.InboundTypeSendLocation, "", map[string]any{
				"latitude":   *lat,
				"longitude":  *lng,
				"deviceName": *device,
			}); err != nil {
				return err
			}
		case f.Event == proto.EventUpdateDeviceList:
			var devices []proto.DeviceTuple
			if err := json.Unmarshal(f.Data, &devices); err != nil {
				return fmt.Errorf("unmarshal device list: %w", err)
			}
			for _, d := range devices {
				if d.ID == self && d.Device.Latitude != 0 {
					fmt.Printf("Device visible: id=%s name=%s at %.5f,%.5f (%d devices in %s)\n",
						d.ID, d.Device.DeviceName, d.Device.Latitude, d.Device.Longitude, len(devices), *room)
					return nil
				}
			}
		}
	}
}
