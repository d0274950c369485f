// Package status provides a thread-safe status tracker for the gotchi
// daemon. It is the read-only mirror that display consumers (HTTP handlers,
// the TUI viewer) see; the inference internals never hand out references.
package status

import (
	"sync"
	"time"

	"github.com/hydraesp/gotchi/internal/brain"
	"github.com/hydraesp/gotchi/internal/sensor"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	ScanMs      int64
	HealthMs    int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	QueueCap    int
	DropPolicy  string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State         brain.State
	Previous      brain.State
	Excitement    int
	Learning      int
	Sensors       sensor.Snapshot
	Transitions   uint64
	Dropped       uint64
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	SessionID     string
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, session id, and
// config.
func NewTracker(startTime time.Time, sessionID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     brain.Idle,
			Previous:  brain.Idle,
			StartTime: startTime,
			SessionID: sessionID,
			Config:    cfg,
		},
	}
}

// Update sets the inference view: states, counters, sensors, and feed
// counts. Called from the consumer loop on every UI tick.
func (t *Tracker) Update(state, previous brain.State, excitement, learning int, sensors sensor.Snapshot, transitions, dropped uint64) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Previous = previous
	t.snap.Excitement = excitement
	t.snap.Learning = learning
	t.snap.Sensors = sensors
	t.snap.Transitions = transitions
	t.snap.Dropped = dropped
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
