// Package events provides the change feed for astronaut records.
//
// Store hooks publish events to a Broker, which fans them out to every
// registered Subscriber. Adapters connect the broker to the WebSocket hub
// and the SSE broadcaster so both transports share one event pipeline.
package events

import "time"

// EventType represents the type of change event.
type EventType string

// Event types for record changes.
const (
	// Record events (from store hooks).
	AstronautCreated EventType = "astronaut.created"
	AstronautUpdated EventType = "astronaut.updated"
	AstronautDeleted EventType = "astronaut.deleted"

	// Client events (from transport layers).
	ClientConnected EventType = "client.connected"
)

// Event represents a change event with a sequence id, type, timestamp and data.
type Event struct {
	ID        uint64    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// UpdatedData is the payload of an AstronautUpdated event.
type UpdatedData struct {
	Before any `json:"before"`
	After  any `json:"after"`
}
