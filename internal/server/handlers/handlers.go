// Package handlers provides HTTP request handlers for the astronauts API.
package handlers

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/astronauts/internal/server/cache"
	"github.com/agentstation/astronauts/internal/server/events"
	"github.com/agentstation/astronauts/internal/server/sse"
	ws "github.com/agentstation/astronauts/internal/server/websocket"
	"github.com/agentstation/astronauts/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// EventBus publishes events and reports delivery counters.
type EventBus interface {
	Publish(events.EventType, any)
	Stats() events.Stats
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	store          *store.Store
	cache          *cache.Cache
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	bus            EventBus
	version        string
	startTime      time.Time
}

// New creates a new Handlers instance. bus may be nil.
func New(
	st *store.Store,
	c *cache.Cache,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
	bus EventBus,
	version string,
	startTime time.Time,
) *Handlers {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Handlers{
		store:          st,
		cache:          c,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
		bus:            bus,
		version:        version,
		startTime:      startTime,
	}
}

// cached serves key from the response cache at the current store revision.
func (h *Handlers) cached(key string, compute func() any) any {
	if h.cache == nil {
		return compute()
	}
	return h.cache.Fetch(key, h.store.Revision(), h.store.Revision, compute)
}

func (h *Handlers) publish(eventType events.EventType, data any) {
	if h.bus != nil {
		h.bus.Publish(eventType, data)
	}
}
