package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventConnected greets a new connection with its own id.
	EventConnected EventKind = iota
	// EventJoinedRoom confirms a join with the room's current devices.
	EventJoinedRoom
	// EventReceiveLocation carries one device's fresh snapshot.
	EventReceiveLocation
	// EventDeviceList carries the room's full device list.
	EventDeviceList
	// EventUserCount carries the number of devices sharing location in the room.
	EventUserCount
	// EventFocusDevice answers a request for one device's snapshot.
	EventFocusDevice
	// EventUserDisconnect notifies the room that a location sharer left.
	EventUserDisconnect
	// EventChatMessage carries a chat line.
	EventChatMessage

	// Audio presence and signaling events
	// EventAudioPeers lists existing participants to a joining one.
	EventAudioPeers
	// EventAudioUserConnected notifies the room of a new audio participant.
	EventAudioUserConnected
	// EventAudioUserDisconnected notifies the room that an audio participant left.
	EventAudioUserDisconnected
	// EventOffer relays an SDP offer.
	EventOffer
	// EventAnswer relays an SDP answer.
	EventAnswer
	// EventICECandidate relays an ICE candidate.
	EventICECandidate

	// EventSOSAlert carries an emergency alert.
	EventSOSAlert
)

// Event is sent to clients to describe what happened in the system.
// Events are shared between recipients and must be treated as read-only.
type Event struct {
	Kind EventKind
	Room string
	// From is the connection the event is about or came from.
	From    string
	User    string
	Device  *DeviceEntry
	Devices []DeviceEntry
	Count   int
	Peers   []PeerInfo
	Chat    *ChatMessage
	Alert   *Alert
	// Payload is the opaque signaling blob, forwarded byte for byte.
	Payload json.RawMessage
}
