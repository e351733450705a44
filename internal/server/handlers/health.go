package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/astronauts/internal/server/response"
)

// HandleHealth handles GET /health.
// @Summary Health check
// @Description Liveness check with uptime
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{payload=object}
// @Router /health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	health := map[string]any{
		"status":  "healthy",
		"service": "astronauts-api",
		"version": h.version,
	}
	if !h.startTime.IsZero() {
		health["startedAt"] = h.startTime.UTC().Format(time.RFC3339)
		health["uptimeSeconds"] = int64(time.Since(h.startTime).Seconds())
	}
	response.OK(w, health)
}

// HandleReady handles GET /ready.
// @Summary Readiness check
// @Description Readiness check including store, cache and stream status
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{payload=object}
// @Failure 503 {object} response.Response{payload=string}
// @Router /ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if h.store == nil {
		response.ServiceUnavailable(w, "Store not available")
		return
	}

	ready := map[string]any{
		"status":   "ready",
		"records":  h.store.Len(),
		"revision": h.store.Revision(),
	}
	if h.cache != nil {
		ready["cache"] = h.cache.GetStats()
	}
	if h.wsHub != nil {
		ready["websocketClients"] = h.wsHub.ClientCount()
	}
	if h.sseBroadcaster != nil {
		ready["sseClients"] = h.sseBroadcaster.ClientCount()
	}
	if h.bus != nil {
		ready["events"] = h.bus.Stats()
	}

	response.OK(w, ready)
}
