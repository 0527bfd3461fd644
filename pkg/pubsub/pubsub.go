package pubsub

import (
	"context"
	"encoding/json"
)

// Topics
const (
	TopicView    = "view"    // shell state changes, payload StatusEvent
	TopicDiagram = "diagram" // node/edge set changes, payload DiagramEvent
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic ("view", "diagram")
	Type    string          `json:"type"`    // Event type (e.g. "loading", "ready", "moved")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events. It is closed when the
	// subscription or the publisher is closed.
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// ErrorInfo is a user-visible failure
type ErrorInfo struct {
	Kind    string `json:"kind"` // network, malformed_document, layout_engine
	Message string `json:"message"`
}

// StatusEvent represents the view shell state
type StatusEvent struct {
	State      string     `json:"state"`   // empty, loading, ready, laying_out
	Message    string     `json:"message"` // Human-readable status message
	Nodes      int        `json:"nodes"`
	Edges      int        `json:"edges"`
	Generation uint64     `json:"generation"`
	Error      *ErrorInfo `json:"error,omitempty"`
}

// DiagramEvent signals that the node/edge set changed and clients should refetch
type DiagramEvent struct {
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	Generation uint64 `json:"generation"`
	Cycles     int    `json:"cycles"`
}

// NewDefaultPublisher creates an SSE publisher with the view and diagram topics configured
func NewDefaultPublisher() *SSEPublisher {
	p := NewSSEPublisher()

	// view: keep a short history, replay only the current state
	p.ConfigureTopic(TopicView, TopicConfig{BufferSize: 10, ReplayAll: false})

	// diagram: only the latest change matters
	p.ConfigureTopic(TopicDiagram, TopicConfig{BufferSize: 1, ReplayAll: false})
	return p
}
