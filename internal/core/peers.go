package core

import (
	"sort"
	"sync"
)

// AudioPeer is a connection that opted into the voice channel.
// The client reference is non-owning; entries are removed no later than the
// client's disconnect.
type AudioPeer struct {
	ID     string
	Room   string
	client *Client
	seq    uint64
}

// Info renders the entry for other participants.
func (p *AudioPeer) Info() PeerInfo {
	return PeerInfo{PeerID: p.ID, UserName: p.client.Name()}
}

// PeerTable indexes audio participants by connection id.
type PeerTable struct {
	mu      sync.RWMutex
	entries map[string]*AudioPeer
	seq     uint64
}

// NewPeerTable builds an empty table.
func NewPeerTable() *PeerTable {
	return &PeerTable{entries: make(map[string]*AudioPeer)}
}

// Join registers c as a participant of room. The returned list holds the
// participants already in room, computed before insertion, so it never
// contains c. added is false if c was already registered for room.
func (t *PeerTable) Join(c *Client, room string) (existing []PeerInfo, added bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing = t.inRoomLocked(room, c.ID)

	if cur, ok := t.entries[c.ID]; ok && cur.Room == room {
		return existing, false
	}
	t.seq++
	t.entries[c.ID] = &AudioPeer{ID: c.ID, Room: room, client: c, seq: t.seq}
	return existing, true
}

// Leave removes the entry of id, reporting the removed entry.
func (t *PeerTable) Leave(id string) (AudioPeer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[id]
	if !ok {
		return AudioPeer{}, false
	}
	delete(t.entries, id)
	return *entry, true
}

// Lookup returns the entry of id.
func (t *PeerTable) Lookup(id string) (AudioPeer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[id]
	if !ok {
		return AudioPeer{}, false
	}
	return *entry, true
}

// Resolve returns the client registered as targetID, refusing targets that
// are unknown or registered for a room other than sourceRoom.
func (t *PeerTable) Resolve(sourceRoom, targetID string) (*Client, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[targetID]
	if !ok {
		return nil, ErrPeerNotFound
	}
	if entry.Room != sourceRoom {
		return nil, ErrRoomMismatch
	}
	return entry.client, nil
}

// InRoom lists participants of room in join order, skipping except.
func (t *PeerTable) InRoom(room, except string) []PeerInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inRoomLocked(room, except)
}

func (t *PeerTable) inRoomLocked(room, except string) []PeerInfo {
	peers := make([]*AudioPeer, 0)
	for id, entry := range t.entries {
		if id == except || entry.Room != room {
			continue
		}
		peers = append(peers, entry)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].seq < peers[j].seq })

	out := make([]PeerInfo, 0, len(peers))
	for _, p := range peers {
		out = append(out, p.Info())
	}
	return out
}

// Counts returns the number of participants per room.
func (t *PeerTable) Counts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int)
	for _, entry := range t.entries {
		out[entry.Room]++
	}
	return out
}
