package http

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/core"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/proto"
)

var errMissingData = errors.New("missing data")

// inboundToCommand decodes one frame. A proto error means the type itself is
// not understood; a plain error means the payload was malformed.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var join proto.JoinRoomData
		if err := decodeData(inbound.Data, &join); err != nil {
			return &core.Command{Kind: core.CommandJoinRoom}, nil, err
		}
		return &core.Command{
			Kind:       core.CommandJoinRoom,
			Room:       join.Room,
			DeviceName: join.DeviceName,
		}, nil, nil
	case proto.InboundTypeSendLocation:
		var loc proto.LocationData
		if err := decodeData(inbound.Data, &loc); err != nil {
			return &core.Command{Kind: core.CommandSendLocation}, nil, err
		}
		return &core.Command{
			Kind: core.CommandSendLocation,
			Location: &core.LocationReport{
				Latitude:   loc.Latitude.Float(),
				Longitude:  loc.Longitude.Float(),
				Accuracy:   finite(loc.Accuracy),
				DeviceName: loc.DeviceName,
				DeviceInfo: loc.DeviceInfo,
			},
		}, nil, nil
	case proto.InboundTypeRequestDevice:
		var target proto.DeviceTarget
		if err := decodeData(inbound.Data, &target); err != nil {
			return &core.Command{Kind: core.CommandRequestDevice}, nil, err
		}
		return &core.Command{Kind: core.CommandRequestDevice, Target: string(target)}, nil, nil
	case proto.InboundTypeChatMessage:
		var msg proto.ChatData
		if err := decodeData(inbound.Data, &msg); err != nil {
			return &core.Command{Kind: core.CommandChatMessage}, nil, err
		}
		return &core.Command{Kind: core.CommandChatMessage, Text: msg.Text}, nil, nil
	case proto.InboundTypeJoinAudio:
		return &core.Command{Kind: core.CommandJoinAudio}, nil, nil
	case proto.InboundTypeLeaveAudio:
		return &core.Command{Kind: core.CommandLeaveAudio}, nil, nil
	case proto.InboundTypeOffer, proto.InboundTypeAnswer, proto.InboundTypeICECandidate:
		return signalCommand(inbound)
	case proto.InboundTypeSOSAlert:
		var sos proto.SOSData
		if err := decodeData(inbound.Data, &sos); err != nil {
			return &core.Command{Kind: core.CommandSOSAlert}, nil, err
		}
		rep := &core.SOSReport{Sender: sos.Sender, DeviceInfo: sos.DeviceInfo}
		if sos.Location != nil {
			rep.Location = &core.GeoPoint{
				Latitude:  sos.Location.Latitude.OrZero(),
				Longitude: sos.Location.Longitude.OrZero(),
				Accuracy:  sos.Location.Accuracy.OrZero(),
			}
		}
		return &core.Command{Kind: core.CommandSOSAlert, SOS: rep}, nil, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}, nil
	}
}

// signaling reports whether the frame is WebRTC negotiation. Trickle ICE
// arrives in bursts well above any sensible event rate, so these frames
// skip the per-connection limiter.
func signaling(typ string) bool {
	switch typ {
	case proto.InboundTypeOffer, proto.InboundTypeAnswer, proto.InboundTypeICECandidate:
		return true
	}
	return false
}

func signalCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	kind := core.CommandOffer
	switch inbound.Type {
	case proto.InboundTypeAnswer:
		kind = core.CommandAnswer
	case proto.InboundTypeICECandidate:
		kind = core.CommandICECandidate
	}

	var sig proto.SignalData
	if err := decodeData(inbound.Data, &sig); err != nil {
		return &core.Command{Kind: kind}, nil, err
	}
	payload := sig.Description
	if kind == core.CommandICECandidate {
		payload = sig.Candidate
	}
	return &core.Command{Kind: kind, Target: sig.Target, Payload: payload}, nil, nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return errMissingData
	}
	return json.Unmarshal(data, v)
}

func finite(n *proto.Number) *float64 {
	f := n.Float()
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return nil
	}
	return f
}

func outboundEvent(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventConnected:
		return outboundEvent(proto.EventConnected, proto.ConnectedData{ID: event.From, Room: event.Room})
	case core.EventJoinedRoom:
		return outboundEvent(proto.EventJoinedRoom, proto.JoinedRoomData{
			Room:       event.Room,
			ID:         event.From,
			DeviceName: event.User,
			Devices:    deviceTuples(event.Devices),
			UserCount:  event.Count,
		})
	case core.EventReceiveLocation:
		return outboundEvent(proto.EventReceiveLocation, deviceEvent(event.Device))
	case core.EventFocusDevice:
		return outboundEvent(proto.EventFocusDevice, deviceEvent(event.Device))
	case core.EventDeviceList:
		return outboundEvent(proto.EventUpdateDeviceList, deviceTuples(event.Devices))
	case core.EventUserCount:
		return outboundEvent(proto.EventUpdateUserCount, event.Count)
	case core.EventUserDisconnect:
		return outboundEvent(proto.EventUserDisconnect, proto.PeerData{PeerID: event.From, UserName: event.User})
	case core.EventAudioUserConnected:
		return outboundEvent(proto.EventUserConnected, proto.PeerData{PeerID: event.From, UserName: event.User})
	case core.EventAudioUserDisconnected:
		return outboundEvent(proto.EventUserDisconnected, proto.PeerData{PeerID: event.From, UserName: event.User})
	case core.EventAudioPeers:
		peers := make([]proto.PeerData, 0, len(event.Peers))
		for _, p := range event.Peers {
			peers = append(peers, proto.PeerData{PeerID: p.PeerID, UserName: p.UserName})
		}
		return outboundEvent(proto.EventAudioPeers, peers)
	case core.EventChatMessage:
		msg := event.Chat
		if msg == nil {
			return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventChatMessage}
		}
		return outboundEvent(proto.EventChatMessage, proto.ChatEventData{
			ID:        msg.ID,
			Room:      msg.Room,
			Text:      msg.Text,
			Sender:    msg.Sender,
			SenderID:  msg.SenderID,
			Timestamp: msg.CreatedAt.UnixMilli(),
		})
	case core.EventOffer:
		return outboundEvent(proto.EventOffer, proto.DescriptionData{PeerID: event.From, Description: event.Payload})
	case core.EventAnswer:
		return outboundEvent(proto.EventAnswer, proto.DescriptionData{PeerID: event.From, Description: event.Payload})
	case core.EventICECandidate:
		return outboundEvent(proto.EventICECandidate, proto.CandidateData{PeerID: event.From, Candidate: event.Payload})
	case core.EventSOSAlert:
		a := event.Alert
		if a == nil {
			return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventSOSAlert}
		}
		return outboundEvent(proto.EventSOSAlert, proto.SOSEventData{
			ID:       a.ID,
			Room:     a.Room,
			Sender:   a.Sender,
			SenderID: a.SenderID,
			Location: proto.GeoPoint{
				Latitude:  a.Location.Latitude,
				Longitude: a.Location.Longitude,
				Accuracy:  a.Location.Accuracy,
			},
			DeviceInfo: a.DeviceInfo,
			IPInfo:     proto.IPInfo{IP: a.IP},
			Message:    a.Message,
			Timestamp:  a.CreatedAt.UnixMilli(),
		})
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

// outboundFromResult builds the reply to a request/response event.
func outboundFromResult(id string, res *core.Result) proto.Outbound {
	if res.OK() {
		return proto.Outbound{
			Type: proto.OutboundTypeAck,
			ID:   id,
			Data: proto.AckData{Success: true, MessageID: res.MessageID},
		}
	}
	return outboundError(id, res.Error.Code, res.Error.Message)
}

func outboundError(id, code, msg string) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		ID:    id,
		Error: &proto.Error{Code: code, Msg: msg},
	}
}

func toDevice(snap core.DeviceSnapshot) proto.Device {
	return proto.Device{
		Latitude:   snap.Latitude,
		Longitude:  snap.Longitude,
		Accuracy:   snap.Accuracy,
		DeviceName: snap.DeviceName,
		DeviceInfo: snap.DeviceInfo,
		JoinedAt:   snap.JoinedAt,
		LastUpdate: snap.LastUpdate,
	}
}

func deviceEvent(entry *core.DeviceEntry) proto.DeviceEvent {
	if entry == nil {
		return proto.DeviceEvent{}
	}
	return proto.DeviceEvent{ID: entry.ID, Device: toDevice(entry.Device)}
}

func deviceTuples(entries []core.DeviceEntry) []proto.DeviceTuple {
	out := make([]proto.DeviceTuple, 0, len(entries))
	for _, e := range entries {
		out = append(out, proto.DeviceTuple{ID: e.ID, Device: toDevice(e.Device)})
	}
	return out
}
