package core

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/sanitize"
)

const sosMessage = "Emergency SOS Alert!"

// AlertRecorder receives accepted SOS alerts. Record must not block.
type AlertRecorder interface {
	Record(alert Alert)
}

// HubConfig configures a Hub. Zero values select defaults.
type HubConfig struct {
	DefaultRoom string
	Logger      *zerolog.Logger
	Alerts      AlertRecorder
	Now         func() time.Time
}

// Hub is the event dispatcher. It turns commands into registry and peer
// table transitions and fans the resulting events out to the right scope.
type Hub struct {
	// mu serializes compound transitions so the payload broadcast after a
	// mutation always reflects that mutation.
	mu sync.Mutex

	registry *Registry
	peers    *PeerTable
	relay    *Relay
	alerts   AlertRecorder

	clientsMu sync.RWMutex
	clients   map[string]*Client

	log *zerolog.Logger
	now func() time.Time
}

// NewHub creates a dispatcher with empty tables.
func NewHub(cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	registry := NewRegistry(cfg.DefaultRoom)
	registry.now = now
	peers := NewPeerTable()
	return &Hub{
		registry: registry,
		peers:    peers,
		relay:    NewRelay(peers, logger),
		alerts:   cfg.Alerts,
		clients:  make(map[string]*Client),
		log:      logger,
		now:      now,
	}
}

// DefaultRoom returns the room used for clients that never joined one.
func (h *Hub) DefaultRoom() string {
	return h.registry.DefaultRoom()
}

// RegisterClient greets a new connection with its id and the default room's
// user count.
func (h *Hub) RegisterClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c.ID] = c
	total := len(h.clients)
	h.clientsMu.Unlock()

	view := h.registry.View(h.registry.DefaultRoom())
	c.trySend(&Event{Kind: EventConnected, From: c.ID, Room: view.Room})
	c.trySend(&Event{Kind: EventUserCount, Room: view.Room, Count: view.UserCount})

	h.log.Info().Str("conn", c.ID).Str("ip", c.RemoteAddr).Int("connections", total).Msg("client connected")
}

// UnregisterClient runs disconnect cleanup. Only the first call for a client
// has any effect.
func (h *Hub) UnregisterClient(c *Client) {
	if !c.markDisconnected() {
		return
	}

	h.clientsMu.Lock()
	delete(h.clients, c.ID)
	h.clientsMu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	removed := h.registry.Remove(c.ID)
	peer, wasInAudio := h.peers.Leave(c.ID)

	if removed.Device != nil {
		h.registry.Broadcast(removed.Room, &Event{
			Kind: EventUserDisconnect,
			Room: removed.Room,
			From: c.ID,
			User: removed.Device.Device.DeviceName,
		}, nil)
	}
	if wasInAudio {
		name := "Unknown"
		if removed.Device != nil {
			name = removed.Device.Device.DeviceName
		}
		h.registry.Broadcast(peer.Room, &Event{
			Kind: EventAudioUserDisconnected,
			Room: peer.Room,
			From: c.ID,
			User: name,
		}, nil)
	}
	if removed.Device != nil {
		h.broadcastViewLocked(h.registry.View(removed.Room))
	}

	h.log.Info().
		Str("conn", c.ID).
		Str("room", removed.Room).
		Bool("had_device", removed.Device != nil).
		Bool("audio", wasInAudio).
		Uint64("dropped_events", c.Dropped()).
		Msg("client disconnected")
}

// Dispatch applies one command on behalf of c. The result is meaningful only
// for kinds that are Acknowledged; the others fail silently.
func (h *Hub) Dispatch(c *Client, cmd *Command) *Result {
	if c.State() == StateDisconnected {
		return failed(ErrDisconnected)
	}
	if cmd == nil {
		return failed(coreError(ErrCodeInvalidMessage, "empty command"))
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		return h.handleJoin(c, cmd)
	case CommandSendLocation:
		return h.handleLocation(c, cmd)
	case CommandRequestDevice:
		return h.handleRequestDevice(c, cmd)
	case CommandChatMessage:
		return h.handleChat(c, cmd)
	case CommandJoinAudio:
		return h.handleJoinAudio(c)
	case CommandLeaveAudio:
		return h.handleLeaveAudio(c)
	case CommandOffer:
		return h.forward(c, EventOffer, cmd)
	case CommandAnswer:
		return h.forward(c, EventAnswer, cmd)
	case CommandICECandidate:
		return h.forward(c, EventICECandidate, cmd)
	case CommandSOSAlert:
		return h.handleSOS(c, cmd)
	default:
		return failed(coreError(ErrCodeInvalidMessage, fmt.Sprintf("unknown command %d", cmd.Kind)))
	}
}

func (h *Hub) handleJoin(c *Client, cmd *Command) *Result {
	room := strings.TrimSpace(sanitize.Text(cmd.Room))
	name := strings.TrimSpace(sanitize.Text(cmd.DeviceName))
	if room == "" || name == "" {
		h.log.Warn().Str("conn", c.ID).Msg("invalid join data")
		return failed(ErrInvalidJoin)
	}

	if err := h.lockLive(c); err != nil {
		return failed(err)
	}
	defer h.mu.Unlock()

	res := h.registry.Join(c, room)
	if res.Moved {
		h.leaveRoomLocked(c, res)
	}
	h.registry.Rename(c, name)

	view := h.registry.View(room)
	c.trySend(&Event{
		Kind:    EventJoinedRoom,
		Room:    room,
		From:    c.ID,
		User:    name,
		Devices: view.Devices,
		Count:   view.UserCount,
	})
	h.broadcastViewLocked(view)

	h.log.Debug().Str("conn", c.ID).Str("room", room).Str("previous", res.Previous).Msg("joined room")
	return &Result{}
}

// leaveRoomLocked notifies the room a moving client left behind.
func (h *Hub) leaveRoomLocked(c *Client, res JoinResult) {
	old := res.Previous
	if res.Departed != nil {
		h.registry.Broadcast(old, &Event{
			Kind: EventUserDisconnect,
			Room: old,
			From: c.ID,
			User: res.Departed.Device.DeviceName,
		}, nil)
	}
	if peer, ok := h.peers.Lookup(c.ID); ok && peer.Room == old {
		h.peers.Leave(c.ID)
		h.registry.Broadcast(old, &Event{
			Kind: EventAudioUserDisconnected,
			Room: old,
			From: c.ID,
			User: c.Name(),
		}, nil)
	}
	if res.Departed != nil {
		h.broadcastViewLocked(h.registry.View(old))
	}
}

func (h *Hub) handleLocation(c *Client, cmd *Command) *Result {
	if cmd.Location == nil {
		h.log.Warn().Str("conn", c.ID).Msg("invalid location data")
		return failed(ErrInvalidLocation)
	}

	if err := h.lockLive(c); err != nil {
		return failed(err)
	}
	defer h.mu.Unlock()

	view, entry, err := h.registry.ReportLocation(c, *cmd.Location)
	if err != nil {
		h.log.Warn().Err(err).Str("conn", c.ID).Msg("location rejected")
		return failed(err)
	}

	h.registry.Broadcast(view.Room, &Event{
		Kind:   EventReceiveLocation,
		Room:   view.Room,
		From:   c.ID,
		Device: &entry,
	}, nil)
	h.broadcastViewLocked(view)
	return &Result{}
}

func (h *Hub) handleRequestDevice(c *Client, cmd *Command) *Result {
	entry, err := h.registry.Lookup(c.ID, cmd.Target)
	if err != nil {
		h.log.Warn().Str("conn", c.ID).Str("target", cmd.Target).Msg("device not found")
		return failed(err)
	}
	c.trySend(&Event{
		Kind:   EventFocusDevice,
		Room:   c.Room(),
		From:   entry.ID,
		Device: &entry,
	})
	return &Result{}
}

func (h *Hub) handleChat(c *Client, cmd *Command) *Result {
	text := strings.TrimSpace(sanitize.Text(cmd.Text))
	sender := c.Name()
	room := c.Room()
	if text == "" || sender == "" || room == "" {
		h.log.Warn().Str("conn", c.ID).Msg("invalid chat message")
		return failed(ErrInvalidChat)
	}

	msg := &ChatMessage{
		ID:        uuid.NewString(),
		Room:      room,
		Text:      text,
		Sender:    sender,
		SenderID:  c.ID,
		CreatedAt: h.now(),
	}

	h.mu.Lock()
	h.registry.Broadcast(room, &Event{Kind: EventChatMessage, Room: room, From: c.ID, Chat: msg}, nil)
	h.mu.Unlock()

	return &Result{MessageID: msg.ID}
}

func (h *Hub) handleSOS(c *Client, cmd *Command) *Result {
	rep := cmd.SOS
	if rep == nil || rep.Location == nil {
		h.log.Warn().Str("conn", c.ID).Msg("invalid sos data")
		return failed(ErrInvalidSOS)
	}
	sender := strings.TrimSpace(sanitize.Text(rep.Sender))
	if sender == "" {
		h.log.Warn().Str("conn", c.ID).Msg("invalid sos data")
		return failed(ErrInvalidSOS)
	}

	if err := h.lockLive(c); err != nil {
		return failed(err)
	}
	room := h.registry.EnsureJoined(c)
	now := h.now()
	alert := &Alert{
		ID:         fmt.Sprintf("sos-%d-%s", now.UnixMilli(), c.ID),
		Room:       room,
		Sender:     sender,
		SenderID:   c.ID,
		Location:   *rep.Location,
		DeviceInfo: sanitize.Document(rep.DeviceInfo),
		IP:         c.RemoteAddr,
		Message:    sosMessage,
		CreatedAt:  now,
	}
	sent := h.registry.Broadcast(room, &Event{Kind: EventSOSAlert, Room: room, From: c.ID, Alert: alert}, c)
	h.mu.Unlock()

	if h.alerts != nil {
		h.alerts.Record(*alert)
	}
	h.log.Warn().
		Str("conn", c.ID).
		Str("room", room).
		Str("sender", sender).
		Str("ip", alert.IP).
		Int("recipients", sent.Sent).
		Msg("sos alert")
	return &Result{MessageID: alert.ID}
}

func (h *Hub) handleJoinAudio(c *Client) *Result {
	if err := h.lockLive(c); err != nil {
		return failed(err)
	}
	defer h.mu.Unlock()

	room := h.registry.EnsureJoined(c)
	existing, added := h.peers.Join(c, room)
	c.trySend(&Event{Kind: EventAudioPeers, Room: room, Peers: existing})
	if added {
		h.registry.Broadcast(room, &Event{
			Kind: EventAudioUserConnected,
			Room: room,
			From: c.ID,
			User: c.Name(),
		}, c)
	}
	h.log.Debug().Str("conn", c.ID).Str("room", room).Int("peers", len(existing)+1).Msg("joined audio")
	return &Result{}
}

func (h *Hub) handleLeaveAudio(c *Client) *Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	peer, ok := h.peers.Leave(c.ID)
	if !ok {
		return &Result{}
	}
	h.registry.Broadcast(peer.Room, &Event{
		Kind: EventAudioUserDisconnected,
		Room: peer.Room,
		From: c.ID,
		User: c.Name(),
	}, c)
	h.log.Debug().Str("conn", c.ID).Str("room", peer.Room).Msg("left audio")
	return &Result{}
}

func (h *Hub) forward(c *Client, kind EventKind, cmd *Command) *Result {
	room := c.Room()
	if room == "" {
		room = h.registry.DefaultRoom()
	}
	err := h.relay.Forward(Signal{
		Kind:    kind,
		Source:  c,
		Room:    room,
		Target:  cmd.Target,
		Payload: cmd.Payload,
	})
	if err != nil {
		return failed(err)
	}
	return &Result{}
}

// lockLive takes mu unless c was disconnected meanwhile. Cleanup marks the
// client before taking mu, so nothing is stored for it after cleanup ran.
func (h *Hub) lockLive(c *Client) error {
	h.mu.Lock()
	if c.State() == StateDisconnected {
		h.mu.Unlock()
		return ErrDisconnected
	}
	return nil
}

func (h *Hub) broadcastViewLocked(view RoomView) {
	h.registry.Broadcast(view.Room, &Event{Kind: EventDeviceList, Room: view.Room, Devices: view.Devices}, nil)
	h.registry.Broadcast(view.Room, &Event{Kind: EventUserCount, Room: view.Room, Count: view.UserCount}, nil)
}

// Stats lists rooms with member, device and audio participant counts.
func (h *Hub) Stats() []RoomStats {
	stats := h.registry.Stats()
	counts := h.peers.Counts()
	for i := range stats {
		stats[i].AudioPeers = counts[stats[i].Name]
	}
	return stats
}

// Connections returns the number of registered clients.
func (h *Hub) Connections() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}
