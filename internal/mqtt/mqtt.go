// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/hydraesp/gotchi/internal/brain"
)

// Topic is the MQTT topic for mood transition events.
const Topic = "gotchi/mood/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "gotchi/mood/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a mood transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(t brain.Transition) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Mood MoodPayload `json:"mood"`
}

// MoodPayload contains the transition details.
type MoodPayload struct {
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Glyph     string `json:"glyph"`
}

// FormatPayload creates the JSON payload for a mood transition.
func FormatPayload(t brain.Transition) ([]byte, error) {
	payload := Payload{
		Mood: MoodPayload{
			Timestamp: t.At.UTC().Format(time.RFC3339),
			From:      t.From.String(),
			To:        t.To.String(),
			Glyph:     t.To.Glyph(),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for simple system events
// that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
