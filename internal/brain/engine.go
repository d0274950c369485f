package brain

import (
	"context"
	"log"
	"time"

	"github.com/hydraesp/gotchi/internal/sensor"
)

// Config holds the rule-table thresholds and timing. Defaults mirror the
// device firmware this daemon grew out of.
type Config struct {
	// TickPeriod is the inference cadence. State duration accumulates in
	// units of this period.
	TickPeriod time.Duration

	// LowMemoryThreshold forces Error below this many free bytes.
	LowMemoryThreshold uint64

	// HighWiFiThreshold is the network count that counts as high activity.
	HighWiFiThreshold uint32

	// ExcitedSignalDBm splits high WiFi activity into Excited (stronger
	// than this) and Sniffing.
	ExcitedSignalDBm int32

	// TrackingBLECount and StrongBLEThreshold gate the Tracking rule:
	// more than TrackingBLECount devices with a best signal stronger
	// than the threshold.
	TrackingBLECount   uint32
	StrongBLEThreshold int32

	// SniffDwell is how long Sniffing must hold before Learning.
	SniffDwell time.Duration

	// SleepDwell is how long total inactivity must hold before Sleeping.
	SleepDwell time.Duration

	// BootWindowSeconds reports Updating while uptime is below it.
	BootWindowSeconds uint64

	// AmbientDecayEvery is the wall-time cadence of the background
	// excitement decay, independent of which rule fires.
	AmbientDecayEvery time.Duration

	// MetricsEvery is the cadence of the periodic metrics log line.
	MetricsEvery time.Duration
}

// DefaultConfig returns the firmware defaults.
func DefaultConfig() Config {
	return Config{
		TickPeriod:         200 * time.Millisecond,
		LowMemoryThreshold: 10240,
		HighWiFiThreshold:  10,
		ExcitedSignalDBm:   -40,
		TrackingBLECount:   5,
		StrongBLEThreshold: -50,
		SniffDwell:         5 * time.Second,
		SleepDwell:         60 * time.Second,
		BootWindowSeconds:  60,
		AmbientDecayEvery:  10 * time.Second,
		MetricsEvery:       30 * time.Second,
	}
}

// Counter bounds for excitement and learning progress.
const (
	counterMin = 0
	counterMax = 100
)

// Per-tick and per-transition counter steps.
const (
	excitementTickStep  = 5  // each tick spent in high WiFi activity
	excitementEnterStep = 10 // entering Excited
	excitementSleepStep = 2  // decay per Sleeping tick
	learningTickStep    = 10 // each tick the Learning rule fires
	learningEnterStep   = 5  // entering Learning
	learningSleepStep   = 2  // decay on entering Sleeping
	learningSleepFloor  = 20 // no sleep decay at or below this
)

// Engine is the state-inference task. It owns the current state and the
// hysteresis counters exclusively; everything it shares with other tasks
// goes out as copies through the Feed.
type Engine struct {
	rec  *sensor.Record
	feed *Feed
	cfg  Config
	now  func() time.Time

	state      State
	prev       State
	duration   time.Duration // time spent in the current state
	excitement int
	learning   int

	lastDecay   time.Time
	lastMetrics time.Time
}

// NewEngine creates an Engine reading from rec and publishing to feed.
// now is the clock; pass time.Now outside of tests.
func NewEngine(rec *sensor.Record, feed *Feed, cfg Config, now func() time.Time) *Engine {
	e := &Engine{
		rec:         rec,
		feed:        feed,
		cfg:         cfg,
		now:         now,
		state:       Idle,
		prev:        Idle,
		lastDecay:   now(),
		lastMetrics: now(),
	}
	feed.setCurrent(Idle)
	return e
}

// State returns the currently held state.
func (e *Engine) State() State { return e.state }

// Previous returns the state held before the last committed transition.
func (e *Engine) Previous() State { return e.prev }

// Counters returns the excitement and learning levels.
func (e *Engine) Counters() (excitement, learning int) {
	return e.excitement, e.learning
}

// Duration returns the time accumulated in the current state.
func (e *Engine) Duration() time.Duration { return e.duration }

// Tick runs one inference cycle: snapshot, rule evaluation, commit. A read
// timeout skips the cycle entirely — state and duration stay untouched and
// the next tick works from fresh data.
func (e *Engine) Tick() {
	snap, err := e.rec.Read()
	if err != nil {
		log.Printf("brain: skipping tick: %v", err)
		return
	}

	next := e.evaluate(snap)
	e.ambientDecay()

	if next != e.state {
		e.commit(next)
	} else {
		e.duration += e.cfg.TickPeriod
	}

	e.logMetrics()
}

// Run ticks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	log.Printf("brain: engine started: tick=%v", e.cfg.TickPeriod)
	ticker := time.NewTicker(e.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("brain: engine stopped")
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// evaluate walks the ordered rule table top to bottom; the first matching
// rule wins. Per-tick counter effects apply on the branch taken.
func (e *Engine) evaluate(snap sensor.Snapshot) State {
	// Safety first: low memory overrides everything.
	if snap.FreeMemoryBytes < e.cfg.LowMemoryThreshold {
		return Error
	}

	if snap.WiFiNetworkCount >= e.cfg.HighWiFiThreshold {
		e.excitement = clamp(e.excitement + excitementTickStep)
		if snap.WiFiSignalAvgDBm > e.cfg.ExcitedSignalDBm {
			return Excited
		}
		return Sniffing
	}

	if snap.BLEDeviceCount > e.cfg.TrackingBLECount && snap.BLESignalBestDBm > e.cfg.StrongBLEThreshold {
		return Tracking
	}

	if e.state == Sniffing && e.duration > e.cfg.SniffDwell {
		e.learning = clamp(e.learning + learningTickStep)
		return Learning
	}

	// The dwell gates entry into Sleeping; once asleep the companion stays
	// asleep while the inactivity holds, rather than re-earning the dwell
	// every tick after the duration reset.
	if snap.WiFiNetworkCount == 0 && snap.BLEDeviceCount == 0 && !snap.UserInteraction &&
		(e.state == Sleeping || e.duration > e.cfg.SleepDwell) {
		e.excitement = clamp(e.excitement - excitementSleepStep)
		return Sleeping
	}

	if snap.UptimeSeconds < e.cfg.BootWindowSeconds {
		return Updating
	}

	return Idle
}

// ambientDecay applies the slow background excitement decay on its own
// wall-time cadence, independent of which rule fired.
func (e *Engine) ambientDecay() {
	now := e.now()
	if now.Sub(e.lastDecay) >= e.cfg.AmbientDecayEvery {
		e.excitement = clamp(e.excitement - 1)
		e.lastDecay = now
	}
}

// commit records a state change: logs it, publishes the transition, applies
// the entered-state side effects, and resets the duration clock.
func (e *Engine) commit(next State) {
	log.Printf("brain: state change: %s -> %s (held %v)", e.state, next, e.duration)

	e.feed.Publish(Transition{From: e.state, To: next, At: e.now()})
	e.applyEntry(next)

	e.prev = e.state
	e.state = next
	e.duration = 0
}

// applyEntry adjusts the counters according to the state being entered.
func (e *Engine) applyEntry(next State) {
	switch next {
	case Excited:
		e.excitement = clamp(e.excitement + excitementEnterStep)
	case Learning:
		e.learning = clamp(e.learning + learningEnterStep)
	case Sleeping:
		if e.learning > learningSleepFloor {
			e.learning = clamp(e.learning - learningSleepStep)
		}
	}
}

func (e *Engine) logMetrics() {
	now := e.now()
	if now.Sub(e.lastMetrics) >= e.cfg.MetricsEvery {
		log.Printf("brain: metrics: state=%s held=%v excitement=%d learning=%d",
			e.state, e.duration, e.excitement, e.learning)
		e.lastMetrics = now
	}
}

func clamp(v int) int {
	if v < counterMin {
		return counterMin
	}
	if v > counterMax {
		return counterMax
	}
	return v
}
