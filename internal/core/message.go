package core

import (
	"encoding/json"
	"time"
)

// LocationReport is an unvalidated location update as decoded from the wire.
// Pointer fields distinguish "absent" from zero.
type LocationReport struct {
	Latitude   *float64
	Longitude  *float64
	Accuracy   *float64
	DeviceName string
	DeviceInfo json.RawMessage
}

// DeviceSnapshot is the latest accepted report of one connection.
type DeviceSnapshot struct {
	Latitude   float64
	Longitude  float64
	Accuracy   *float64
	DeviceName string
	DeviceInfo json.RawMessage
	JoinedAt   time.Time
	LastUpdate time.Time

	seq uint64
}

// DeviceEntry pairs a connection id with its snapshot.
type DeviceEntry struct {
	ID     string
	Device DeviceSnapshot
}

// RoomView is the device list and user count of one room at one instant.
type RoomView struct {
	Room      string
	Devices   []DeviceEntry
	UserCount int
}

// RoomStats summarizes a room for operators.
type RoomStats struct {
	Name       string `json:"name"`
	Members    int    `json:"members"`
	Devices    int    `json:"devices"`
	AudioPeers int    `json:"audio_peers"`
}

// ChatMessage is a sanitized chat line fanned out to a room.
type ChatMessage struct {
	ID        string
	Room      string
	Text      string
	Sender    string
	SenderID  string
	CreatedAt time.Time
}

// GeoPoint is a coordinate triple; missing values are zero.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// SOSReport is an unvalidated emergency alert as decoded from the wire.
type SOSReport struct {
	Sender     string
	Location   *GeoPoint
	DeviceInfo json.RawMessage
}

// Alert is an accepted emergency alert, stamped by the server.
type Alert struct {
	ID         string
	Room       string
	Sender     string
	SenderID   string
	Location   GeoPoint
	DeviceInfo json.RawMessage
	IP         string
	Message    string
	CreatedAt  time.Time
}

// PeerInfo describes an audio participant to other participants.
type PeerInfo struct {
	PeerID   string
	UserName string
}
