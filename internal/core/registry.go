package core

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/sanitize"
)

// DefaultRoom is used when neither the client nor the configuration names one.
const DefaultRoom = "public"

// JoinResult describes what a join changed.
type JoinResult struct {
	Room     string
	Previous string
	// Moved is true when an association with a different room was replaced.
	Moved bool
	// Departed is the snapshot dropped from Previous, if any.
	Departed *DeviceEntry
}

// RemoveResult describes what a removal dropped.
type RemoveResult struct {
	Room   string
	Member bool
	// Device is non-nil only if the connection had reported a location.
	Device *DeviceEntry
}

// Registry maps rooms to the connections associated with them and keeps at
// most one device snapshot per connection.
type Registry struct {
	mu          sync.RWMutex
	defaultRoom string
	rooms       map[string]*Room
	members     map[string]*Client
	devices     map[string]*DeviceSnapshot
	seq         uint64
	now         func() time.Time
}

// NewRegistry builds an empty registry. An empty defaultRoom selects DefaultRoom.
func NewRegistry(defaultRoom string) *Registry {
	if defaultRoom == "" {
		defaultRoom = DefaultRoom
	}
	return &Registry{
		defaultRoom: defaultRoom,
		rooms:       make(map[string]*Room),
		members:     make(map[string]*Client),
		devices:     make(map[string]*DeviceSnapshot),
		now:         time.Now,
	}
}

// DefaultRoom returns the room used for clients that never joined one.
func (r *Registry) DefaultRoom() string {
	return r.defaultRoom
}

// Join associates c with room. Joining the current room again is a no-op;
// joining another room fully replaces the old association and drops the
// snapshot recorded there.
func (r *Registry) Join(c *Client, room string) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joinLocked(c, room)
}

// EnsureJoined joins c to the default room unless it already has one.
func (r *Registry) EnsureJoined(c *Client) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureJoinedLocked(c)
}

func (r *Registry) ensureJoinedLocked(c *Client) string {
	if _, ok := r.members[c.ID]; ok {
		return c.Room()
	}
	return r.joinLocked(c, r.defaultRoom).Room
}

func (r *Registry) joinLocked(c *Client, room string) JoinResult {
	if room == "" {
		room = r.defaultRoom
	}
	res := JoinResult{Room: room}

	if _, ok := r.members[c.ID]; ok {
		current := c.Room()
		if current == room {
			return res
		}
		res.Previous = current
		res.Moved = true
		if old, ok := r.rooms[current]; ok {
			old.RemoveClient(c)
			if old.Empty() {
				delete(r.rooms, current)
			}
		}
		if snap, ok := r.devices[c.ID]; ok {
			res.Departed = &DeviceEntry{ID: c.ID, Device: *snap}
			delete(r.devices, c.ID)
		}
	}

	target, ok := r.rooms[room]
	if !ok {
		target = NewRoom(room)
		r.rooms[room] = target
	}
	target.AddClient(c)
	r.members[c.ID] = c
	c.setRoom(room)
	return res
}

// Rename sets the sanitized display name of c and of its snapshot, if any.
func (r *Registry) Rename(c *Client, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.setName(name)
	if snap, ok := r.devices[c.ID]; ok {
		snap.DeviceName = name
	}
}

// ReportLocation validates and stores a snapshot for c, implicitly joining
// the default room first. It returns the room view computed under the same
// lock as the write, plus the stored entry.
func (r *Registry) ReportLocation(c *Client, rep LocationReport) (RoomView, DeviceEntry, error) {
	if falsy(rep.Latitude) || falsy(rep.Longitude) {
		return RoomView{}, DeviceEntry{}, ErrInvalidLocation
	}
	name := strings.TrimSpace(sanitize.Text(rep.DeviceName))
	if name == "" {
		return RoomView{}, DeviceEntry{}, ErrInvalidLocation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.ensureJoinedLocked(c)
	now := r.now()
	r.seq++

	snap := &DeviceSnapshot{
		Latitude:   *rep.Latitude,
		Longitude:  *rep.Longitude,
		Accuracy:   rep.Accuracy,
		DeviceName: name,
		DeviceInfo: sanitize.Document(rep.DeviceInfo),
		JoinedAt:   now,
		LastUpdate: now,
		seq:        r.seq,
	}
	if prev, ok := r.devices[c.ID]; ok {
		snap.JoinedAt = prev.JoinedAt
	}
	r.devices[c.ID] = snap
	c.setName(name)

	return r.viewLocked(room), DeviceEntry{ID: c.ID, Device: *snap}, nil
}

// Remove drops the association and snapshot of connID. It is safe to call
// repeatedly; only the first call reports anything.
func (r *Registry) Remove(connID string) RemoveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.members[connID]
	if !ok {
		return RemoveResult{}
	}
	res := RemoveResult{Room: c.Room(), Member: true}
	delete(r.members, connID)
	if room, ok := r.rooms[res.Room]; ok {
		room.RemoveClient(c)
		if room.Empty() {
			delete(r.rooms, res.Room)
		}
	}
	if snap, ok := r.devices[connID]; ok {
		res.Device = &DeviceEntry{ID: connID, Device: *snap}
		delete(r.devices, connID)
	}
	return res
}

// Snapshot returns the devices in room ordered by their last update.
func (r *Registry) Snapshot(room string) []DeviceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(room)
}

// View returns the device list and user count of room.
func (r *Registry) View(room string) RoomView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewLocked(room)
}

func (r *Registry) viewLocked(room string) RoomView {
	devices := r.snapshotLocked(room)
	return RoomView{Room: room, Devices: devices, UserCount: len(devices)}
}

func (r *Registry) snapshotLocked(room string) []DeviceEntry {
	members, ok := r.rooms[room]
	if !ok {
		return []DeviceEntry{}
	}
	out := make([]DeviceEntry, 0, members.Len())
	for c := range members.clients {
		if snap, ok := r.devices[c.ID]; ok {
			out = append(out, DeviceEntry{ID: c.ID, Device: *snap})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device.seq < out[j].Device.seq })
	return out
}

// Lookup returns the snapshot of targetID if the requester shares its room.
// Anything else, including a cross-room target, is reported as not found.
func (r *Registry) Lookup(requesterID, targetID string) (DeviceEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requester, ok := r.members[requesterID]
	if !ok {
		return DeviceEntry{}, ErrDeviceNotFound
	}
	target, ok := r.members[targetID]
	if !ok || target.Room() != requester.Room() {
		return DeviceEntry{}, ErrDeviceNotFound
	}
	snap, ok := r.devices[targetID]
	if !ok {
		return DeviceEntry{}, ErrDeviceNotFound
	}
	return DeviceEntry{ID: targetID, Device: *snap}, nil
}

// Broadcast offers ev to every member of room except the optional client.
func (r *Registry) Broadcast(room string, ev *Event, except *Client) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.rooms[room]
	if !ok {
		return PublishResult{}
	}
	return members.Broadcast(ev, except)
}

// Stats lists every non-empty room with member and device counts.
func (r *Registry) Stats() []RoomStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RoomStats, 0, len(r.rooms))
	for name, room := range r.rooms {
		st := RoomStats{Name: name, Members: room.Len()}
		for c := range room.clients {
			if _, ok := r.devices[c.ID]; ok {
				st.Devices++
			}
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// falsy rejects absent, zero and non-finite coordinates.
func falsy(v *float64) bool {
	return v == nil || *v == 0 || math.IsNaN(*v) || math.IsInf(*v, 0)
}
