package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/config"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/core"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/store"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	hub    *core.Hub
	alerts store.AlertStore
	ice    []config.ICEServer
	log    *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance. alerts may be nil when
// the journal is disabled.
func NewAPIHandlers(hub *core.Hub, alerts store.AlertStore, ice []config.ICEServer, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:    hub,
		alerts: alerts,
		ice:    ice,
		log:    logger,
	}
}

// ICEServersResponse mirrors the iceServers member of RTCConfiguration.
type ICEServersResponse struct {
	ICEServers []config.ICEServer `json:"iceServers"`
}

// RoomsResponse lists live rooms.
type RoomsResponse struct {
	Connections int              `json:"connections"`
	Rooms       []core.RoomStats `json:"rooms"`
}

// AlertResponse represents an SOS alert in API responses.
type AlertResponse struct {
	ID         string          `json:"id"`
	Room       string          `json:"room"`
	Sender     string          `json:"sender"`
	SenderID   string          `json:"senderId"`
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	Accuracy   float64         `json:"accuracy"`
	DeviceInfo json.RawMessage `json:"deviceInfo"`
	IP         string          `json:"ip"`
	Message    string          `json:"message"`
	CreatedAt  string          `json:"created_at"`
}

// AlertsResponse is a page of journaled alerts.
type AlertsResponse struct {
	Room   string          `json:"room"`
	Alerts []AlertResponse `json:"alerts"`
}

// Health reports liveness.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// ICEServers returns the STUN/TURN servers clients should use.
// GET /api/ice-servers
func (h *APIHandlers) ICEServers(c *gin.Context) {
	servers := h.ice
	if servers == nil {
		servers = []config.ICEServer{}
	}
	c.JSON(http.StatusOK, ICEServersResponse{ICEServers: servers})
}

// ListRooms returns live room statistics.
// GET /api/rooms
func (h *APIHandlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, RoomsResponse{
		Connections: h.hub.Connections(),
		Rooms:       h.hub.Stats(),
	})
}

// ListAlerts returns the newest journaled alerts of a room.
// GET /api/rooms/:room/alerts?limit=N
func (h *APIHandlers) ListAlerts(c *gin.Context) {
	if h.alerts == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "alert journal disabled"})
		return
	}

	room := c.Param("room")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	alerts, err := h.alerts.ListAlerts(c.Request.Context(), room, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("failed to list alerts")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := AlertsResponse{Room: room, Alerts: make([]AlertResponse, 0, len(alerts))}
	for _, a := range alerts {
		resp.Alerts = append(resp.Alerts, AlertResponse{
			ID:         a.ID,
			Room:       a.Room,
			Sender:     a.Sender,
			SenderID:   a.SenderID,
			Latitude:   a.Latitude,
			Longitude:  a.Longitude,
			Accuracy:   a.Accuracy,
			DeviceInfo: a.DeviceInfo,
			IP:         a.IP,
			Message:    a.Message,
			CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, resp)
}
