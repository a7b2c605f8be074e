package core

import (
	"sync"
	"sync/atomic"
)

// SessionState tracks where a connection is in its lifecycle.
type SessionState int

const (
	// StateConnected is a live connection that has not joined a room yet.
	StateConnected SessionState = iota
	// StateJoined is a connection associated with a room.
	StateJoined
	// StateDisconnected is terminal.
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

const defaultEventBuffer = 64

// Client is one live connection as seen by the core layer.
// ID and RemoteAddr are fixed at construction; the rest is guarded by mu.
type Client struct {
	ID         string
	RemoteAddr string
	Events     chan *Event

	mu    sync.RWMutex
	name  string
	room  string
	state SessionState

	dropped atomic.Uint64
}

// NewClient constructs a client with an initialized event queue.
// A non-positive buffer selects the default size.
func NewClient(id, remoteAddr string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	if remoteAddr == "" {
		remoteAddr = "Unknown"
	}
	return &Client{
		ID:         id,
		RemoteAddr: remoteAddr,
		Events:     make(chan *Event, buffer),
	}
}

// Name returns the sanitized display name, empty until set.
func (c *Client) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Client) setName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// Room returns the room the client is associated with, empty before join.
func (c *Client) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

func (c *Client) setRoom(room string) {
	c.mu.Lock()
	c.room = room
	if c.state == StateConnected {
		c.state = StateJoined
	}
	c.mu.Unlock()
}

// State reports the lifecycle state.
func (c *Client) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// markDisconnected flips the client into the terminal state.
// It reports false if the client was already disconnected.
func (c *Client) markDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisconnected {
		return false
	}
	c.state = StateDisconnected
	return true
}

// Dropped is the number of events discarded because the queue was full.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// trySend enqueues without blocking. A full queue drops the event.
func (c *Client) trySend(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}
