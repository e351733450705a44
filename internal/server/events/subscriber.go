package events

// Subscriber is an interface for event consumers.
// Implementations adapt the event stream to a specific transport.
// Subscribers are compared by identity, so implementations must be
// comparable (typically pointers).
type Subscriber interface {
	// Send delivers an event to the subscriber. It is called from the
	// broker loop and must not block.
	Send(Event) error

	// Close cleanly shuts down the subscriber.
	Close() error
}
