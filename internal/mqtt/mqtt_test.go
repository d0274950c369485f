package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hydraesp/gotchi/internal/brain"
)

func TestFormatPayload(t *testing.T) {
	tr := brain.Transition{
		From: brain.Idle,
		To:   brain.Excited,
		At:   time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
	}

	payload, err := FormatPayload(tr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Mood.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Mood.Timestamp)
	}
	if parsed.Mood.From != "Idle" {
		t.Errorf("unexpected from: %s", parsed.Mood.From)
	}
	if parsed.Mood.To != "Excited" {
		t.Errorf("unexpected to: %s", parsed.Mood.To)
	}
	if parsed.Mood.Glyph != brain.Excited.Glyph() {
		t.Errorf("unexpected glyph: %s", parsed.Mood.Glyph)
	}
}

func TestFormatPayloadAllStates(t *testing.T) {
	for s := brain.Idle; s <= brain.Updating; s++ {
		t.Run(s.String(), func(t *testing.T) {
			payload, err := FormatPayload(brain.Transition{From: brain.Idle, To: s, At: time.Now()})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Mood.To != s.String() {
				t.Errorf("to: got %s, want %s", parsed.Mood.To, s)
			}
		})
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("event: got %s, want SHUTDOWN", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("reason: got %s, want SIGTERM", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"gotchi":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()
	tr := brain.Transition{From: brain.Idle, To: brain.Sniffing, At: time.Now()}

	if err := f.Publish(tr); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(f.Transitions) != 1 || f.Transitions[0].To != brain.Sniffing {
		t.Errorf("transitions not recorded: %+v", f.Transitions)
	}
	if len(f.Payloads) != 1 {
		t.Errorf("payloads not recorded: %d", len(f.Payloads))
	}

	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT", Timestamp: time.Now()}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}
	if len(f.SystemEvents) != 1 {
		t.Errorf("system events not recorded: %d", len(f.SystemEvents))
	}

	f.Close()
	if !f.Closed {
		t.Error("Closed not set")
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	pubErr := errors.New("broker gone")
	f.PublishError = pubErr

	if err := f.Publish(brain.Transition{}); !errors.Is(err, pubErr) {
		t.Errorf("expected configured error, got %v", err)
	}
	if len(f.Transitions) != 0 {
		t.Error("failed publish should not record")
	}
}
