package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom associates the client with a room.
	CommandJoinRoom CommandKind = iota
	// CommandSendLocation stores a device snapshot and fans it out to the room.
	CommandSendLocation
	// CommandRequestDevice asks for the snapshot of one device in the same room.
	CommandRequestDevice
	// CommandChatMessage delivers a chat line to the room.
	CommandChatMessage
	// CommandJoinAudio registers the client as an audio participant.
	CommandJoinAudio
	// CommandLeaveAudio removes the client from the audio participants.
	CommandLeaveAudio
	// CommandOffer relays an SDP offer to one peer.
	CommandOffer
	// CommandAnswer relays an SDP answer to one peer.
	CommandAnswer
	// CommandICECandidate relays an ICE candidate to one peer.
	CommandICECandidate
	// CommandSOSAlert broadcasts an emergency alert to the room.
	CommandSOSAlert
)

var commandNames = map[CommandKind]string{
	CommandJoinRoom:      "join-room",
	CommandSendLocation:  "send-location",
	CommandRequestDevice: "request-device-location",
	CommandChatMessage:   "chat-message",
	CommandJoinAudio:     "join-audio",
	CommandLeaveAudio:    "leave-audio",
	CommandOffer:         "offer",
	CommandAnswer:        "answer",
	CommandICECandidate:  "ice-candidate",
	CommandSOSAlert:      "sos-alert",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// Acknowledged reports whether the kind is request/response style. Only these
// get an explicit reply; the others fail silently.
func (k CommandKind) Acknowledged() bool {
	switch k {
	case CommandJoinRoom, CommandChatMessage, CommandRequestDevice:
		return true
	default:
		return false
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind       CommandKind
	Room       string
	DeviceName string
	Location   *LocationReport
	Target     string
	Text       string
	Payload    json.RawMessage
	SOS        *SOSReport
}

// Result is the synchronous outcome of a dispatched command.
type Result struct {
	MessageID string
	Error     *CoreError
}

// OK reports whether the command was accepted.
func (r *Result) OK() bool {
	return r != nil && r.Error == nil
}

func failed(err error) *Result {
	return &Result{Error: toCoreError(err)}
}
