package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Inbound is the envelope for messages coming from the client.
// ID is optional; when set on a request/response event the server answers
// with an ack frame carrying the same id.
type Inbound struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom      = "join-room"
	InboundTypeSendLocation  = "send-location"
	InboundTypeRequestDevice = "request-device-location"
	InboundTypeChatMessage   = "chat-message"
	InboundTypeJoinAudio     = "join-audio"
	InboundTypeLeaveAudio    = "leave-audio"
	InboundTypeOffer         = "offer"
	InboundTypeAnswer        = "answer"
	InboundTypeICECandidate  = "ice-candidate"
	InboundTypeSOSAlert      = "sos-alert"

	OutboundTypeEvent = "event"
	OutboundTypeAck   = "ack"
	OutboundTypeError = "error"
)

// Outbound event names.
const (
	EventConnected        = "connected"
	EventJoinedRoom       = "joined-room"
	EventReceiveLocation  = "receive-location"
	EventUpdateDeviceList = "update-device-list"
	EventUpdateUserCount  = "update-user-count"
	EventFocusDevice      = "focus-device-location"
	EventUserDisconnect   = "user-disconnect"
	EventUserDisconnected = "user-disconnected"
	EventUserConnected    = "user-connected"
	EventChatMessage      = "chat-message"
	EventAudioPeers       = "audio-peers"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventICECandidate     = "ice-candidate"
	EventSOSAlert         = "sos-alert"
)

// Number accepts a JSON number or a numeric string. Strings that do not parse
// decode to NaN so callers can tell them apart from absent values.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			f = math.NaN()
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		// booleans and objects are not coordinates
		*n = Number(math.NaN())
		return nil
	}
	*n = Number(f)
	return nil
}

// Float returns the value, or nil if n is nil.
func (n *Number) Float() *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}

// OrZero returns the value, mapping absent, unparsable and infinite input to zero.
func (n *Number) OrZero() float64 {
	if n == nil || math.IsNaN(float64(*n)) || math.IsInf(float64(*n), 0) {
		return 0
	}
	return float64(*n)
}

// JoinRoomData requests to join a specific room.
type JoinRoomData struct {
	Room       string `json:"room"`
	DeviceName string `json:"deviceName"`
}

// LocationData is a location update from a device.
type LocationData struct {
	Latitude   *Number         `json:"latitude"`
	Longitude  *Number         `json:"longitude"`
	Accuracy   *Number         `json:"accuracy,omitempty"`
	DeviceName string          `json:"deviceName"`
	DeviceInfo json.RawMessage `json:"deviceInfo,omitempty"`
}

// DeviceTarget names a connection. It decodes from a bare string or from an
// object with an id field.
type DeviceTarget string

func (d *DeviceTarget) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = DeviceTarget(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return errors.New("device target must be a string or an object with id")
	}
	*d = DeviceTarget(obj.ID)
	return nil
}

// ChatData is a chat line from the client.
type ChatData struct {
	Text string `json:"text"`
}

// SignalData carries WebRTC negotiation. Exactly one of Description and
// Candidate is used depending on the event type; both are opaque.
type SignalData struct {
	Target      string          `json:"target"`
	Description json.RawMessage `json:"description,omitempty"`
	Candidate   json.RawMessage `json:"candidate,omitempty"`
}

// SOSLocation is the position attached to an SOS alert.
type SOSLocation struct {
	Latitude  *Number `json:"latitude"`
	Longitude *Number `json:"longitude"`
	Accuracy  *Number `json:"accuracy"`
}

// SOSData is an emergency alert from the client.
type SOSData struct {
	Sender     string          `json:"sender"`
	Location   *SOSLocation    `json:"location"`
	DeviceInfo json.RawMessage `json:"deviceInfo,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ConnectedData greets a new connection.
type ConnectedData struct {
	ID   string `json:"id"`
	Room string `json:"room"`
}

// Device is the public form of a device snapshot.
type Device struct {
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	Accuracy   *float64        `json:"accuracy,omitempty"`
	DeviceName string          `json:"deviceName"`
	DeviceInfo json.RawMessage `json:"deviceInfo"`
	JoinedAt   time.Time       `json:"joinedAt"`
	LastUpdate time.Time       `json:"lastUpdate"`
}

// DeviceEvent is a snapshot flattened next to its connection id.
type DeviceEvent struct {
	ID string `json:"id"`
	Device
}

// DeviceTuple encodes as a two element array [id, device], the shape of
// update-device-list entries.
type DeviceTuple struct {
	ID     string
	Device Device
}

func (t DeviceTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{t.ID, t.Device})
}

func (t *DeviceTuple) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return errors.New("device tuple must have two elements")
	}
	if err := json.Unmarshal(pair[0], &t.ID); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &t.Device)
}

// JoinedRoomData confirms a join with the room's current devices.
type JoinedRoomData struct {
	Room       string        `json:"room"`
	ID         string        `json:"id"`
	DeviceName string        `json:"deviceName"`
	Devices    []DeviceTuple `json:"devices"`
	UserCount  int           `json:"userCount"`
}

// PeerData identifies a connection to others in its room.
type PeerData struct {
	PeerID   string `json:"peerId"`
	UserName string `json:"userName"`
}

// ChatEventData is a chat line fanned out to a room.
type ChatEventData struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	SenderID  string `json:"senderId"`
	Timestamp int64  `json:"timestamp"`
}

// DescriptionData relays an SDP offer or answer.
type DescriptionData struct {
	PeerID      string          `json:"peerId"`
	Description json.RawMessage `json:"description"`
}

// CandidateData relays an ICE candidate.
type CandidateData struct {
	PeerID    string          `json:"peerId"`
	Candidate json.RawMessage `json:"candidate"`
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

type IPInfo struct {
	IP string `json:"ip"`
}

// SOSEventData is an emergency alert stamped by the server.
type SOSEventData struct {
	ID         string          `json:"id"`
	Room       string          `json:"room"`
	Sender     string          `json:"sender"`
	SenderID   string          `json:"senderId"`
	Location   GeoPoint        `json:"location"`
	DeviceInfo json.RawMessage `json:"deviceInfo"`
	IPInfo     IPInfo          `json:"ipInfo"`
	Message    string          `json:"message"`
	Timestamp  int64           `json:"timestamp"`
}

// AckData answers a request/response event.
type AckData struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
