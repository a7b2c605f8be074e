package core

// Room groups the clients currently associated with the same room name.
// It is owned by Registry and never touched without the registry lock.
type Room struct {
	Name    string
	clients map[*Client]struct{}
}

// PublishResult reports how a broadcast went.
type PublishResult struct {
	Sent    int
	Dropped int
}

// NewRoom constructs a room with no clients.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Broadcast offers the event to every client except the optional one.
// Each send is independent: a full queue only costs that recipient the event.
func (r *Room) Broadcast(event *Event, except *Client) PublishResult {
	var res PublishResult
	for client := range r.clients {
		if client == except {
			continue
		}
		if client.trySend(event) {
			res.Sent++
		} else {
			res.Dropped++
		}
	}
	return res
}

// Len returns the number of clients in the room.
func (r *Room) Len() int {
	return len(r.clients)
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}
