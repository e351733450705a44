package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/agentstation/astronauts/internal/server/events"
	ws "github.com/agentstation/astronauts/internal/server/websocket"
)

// HandleWebSocket handles WebSocket connections at /updates/ws.
// @Summary WebSocket updates
// @Description WebSocket connection for real-time astronaut changes
// @Tags updates
// @Success 101 "Switching Protocols"
// @Router /updates/ws [get].
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(uuid.NewString(), h.wsHub, conn)
	h.wsHub.Register(client)

	h.publish(events.ClientConnected, map[string]any{
		"clientId":  client.ID(),
		"transport": "websocket",
	})

	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE handles Server-Sent Events at /updates/stream.
// @Summary SSE updates stream
// @Description Server-Sent Events stream for astronaut change notifications
// @Tags updates
// @Produce text/event-stream
// @Success 200 "Event stream"
// @Router /updates/stream [get].
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}
