package brain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/hydraesp/gotchi/internal/sensor"
)

// harness wires an engine to a record with a controllable clock. Each tick
// advances the clock by the tick period, matching a live ticker.
type harness struct {
	rec  *sensor.Record
	feed *Feed
	eng  *Engine
	now  time.Time
	cfg  Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		rec:  sensor.New(0),
		feed: NewFeed(DefaultFeedCapacity, DropNewest),
		now:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		cfg:  DefaultConfig(),
	}
	h.eng = NewEngine(h.rec, h.feed, h.cfg, func() time.Time { return h.now })
	return h
}

func (h *harness) set(t *testing.T, snap sensor.Snapshot) {
	t.Helper()
	if err := h.rec.Write(func(s *sensor.Snapshot) {
		seq := s.Seq
		*s = snap
		s.Seq = seq
	}); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
}

func (h *harness) tick() {
	h.now = h.now.Add(h.cfg.TickPeriod)
	h.eng.Tick()
}

func (h *harness) tickN(n int) {
	for i := 0; i < n; i++ {
		h.tick()
	}
}

// healthy returns a snapshot that trips none of the activity rules.
func healthy() sensor.Snapshot {
	return sensor.Snapshot{
		WiFiNetworkCount: 2,
		WiFiSignalAvgDBm: -70,
		BLEDeviceCount:   1,
		BLESignalBestDBm: -80,
		FreeMemoryBytes:  50000,
		UptimeSeconds:    500,
	}
}

func TestExcitedScenario(t *testing.T) {
	h := newHarness(t)
	h.set(t, sensor.Snapshot{
		WiFiNetworkCount: 12,
		WiFiSignalAvgDBm: -35,
		BLEDeviceCount:   0,
		BLESignalBestDBm: -100,
		FreeMemoryBytes:  50000,
		UptimeSeconds:    500,
		SDPresent:        true,
	})
	h.tick()

	if got := h.eng.State(); got != Excited {
		t.Fatalf("state: got %s, want Excited", got)
	}
	ex, _ := h.eng.Counters()
	// +5 for the high-activity tick, +10 for entering Excited.
	if ex != 15 {
		t.Errorf("excitement: got %d, want 15", ex)
	}
}

func TestHighWiFiWeakSignalSniffs(t *testing.T) {
	h := newHarness(t)
	snap := healthy()
	snap.WiFiNetworkCount = 12
	snap.WiFiSignalAvgDBm = -55
	h.set(t, snap)
	h.tick()

	if got := h.eng.State(); got != Sniffing {
		t.Errorf("state: got %s, want Sniffing", got)
	}
}

func TestLowMemoryWinsOverExcitement(t *testing.T) {
	h := newHarness(t)
	h.set(t, sensor.Snapshot{
		WiFiNetworkCount: 20,
		WiFiSignalAvgDBm: -30,
		FreeMemoryBytes:  5000, // below the 10240 threshold
		UptimeSeconds:    500,
	})
	h.tick()

	if got := h.eng.State(); got != Error {
		t.Errorf("state: got %s, want Error (memory rule wins)", got)
	}
}

func TestTrackingRule(t *testing.T) {
	h := newHarness(t)
	snap := healthy()
	snap.BLEDeviceCount = 6
	snap.BLESignalBestDBm = -45
	h.set(t, snap)
	h.tick()

	if got := h.eng.State(); got != Tracking {
		t.Errorf("state: got %s, want Tracking", got)
	}
}

func TestTrackingNeedsStrongSignalAndCount(t *testing.T) {
	h := newHarness(t)

	// Enough devices, weak best signal.
	snap := healthy()
	snap.BLEDeviceCount = 8
	snap.BLESignalBestDBm = -60
	h.set(t, snap)
	h.tick()
	if got := h.eng.State(); got == Tracking {
		t.Error("tracked with weak best signal")
	}

	// Strong signal, too few devices.
	snap = healthy()
	snap.BLEDeviceCount = 5
	snap.BLESignalBestDBm = -40
	h.set(t, snap)
	h.tick()
	if got := h.eng.State(); got == Tracking {
		t.Error("tracked with only 5 devices (rule requires more than 5)")
	}
}

func TestSniffingDwellsIntoLearning(t *testing.T) {
	h := newHarness(t)
	snap := healthy()
	snap.WiFiNetworkCount = 12
	snap.WiFiSignalAvgDBm = -55
	h.set(t, snap)

	h.tick()
	if got := h.eng.State(); got != Sniffing {
		t.Fatalf("state: got %s, want Sniffing", got)
	}

	// Hold the sniff past the 5s dwell. The high-WiFi rule keeps winning
	// while the activity lasts, so Learning waits for it to subside.
	h.tickN(27)
	if got := h.eng.State(); got != Sniffing {
		t.Fatalf("state during dwell: got %s, want Sniffing", got)
	}

	h.set(t, healthy())
	h.tick()
	if got := h.eng.State(); got != Learning {
		t.Fatalf("state after dwell: got %s, want Learning", got)
	}
	_, learning := h.eng.Counters()
	// +10 for the rule tick, +5 for entering Learning.
	if learning != 15 {
		t.Errorf("learning: got %d, want 15", learning)
	}
}

func TestSleepingAfterSustainedInactivity(t *testing.T) {
	h := newHarness(t)
	h.set(t, sensor.Snapshot{
		FreeMemoryBytes: 50000,
		UptimeSeconds:   400,
	})

	h.tick()
	if got := h.eng.State(); got != Idle {
		t.Fatalf("state: got %s, want Idle", got)
	}

	// 60s dwell at 200ms ticks, plus slack for the strict comparison.
	h.tickN(302)
	if got := h.eng.State(); got != Sleeping {
		t.Errorf("state after sleep dwell: got %s, want Sleeping", got)
	}
}

func TestBootWindowReportsUpdating(t *testing.T) {
	h := newHarness(t)
	snap := healthy()
	snap.UptimeSeconds = 30
	h.set(t, snap)
	h.tick()

	if got := h.eng.State(); got != Updating {
		t.Errorf("state: got %s, want Updating inside boot window", got)
	}

	snap.UptimeSeconds = 60
	h.set(t, snap)
	h.tick()
	if got := h.eng.State(); got != Idle {
		t.Errorf("state: got %s, want Idle after boot window", got)
	}
}

func TestTransitionCommittedOnce(t *testing.T) {
	h := newHarness(t)
	snap := healthy()
	snap.WiFiNetworkCount = 12
	snap.WiFiSignalAvgDBm = -35
	h.set(t, snap)

	h.tickN(10)

	tr, ok := h.feed.Drain()
	if !ok {
		t.Fatal("no transition published")
	}
	if tr.From != Idle || tr.To != Excited {
		t.Errorf("transition: got %s -> %s, want Idle -> Excited", tr.From, tr.To)
	}
	if _, ok := h.feed.Drain(); ok {
		t.Error("repeated ticks in the same state re-announced the transition")
	}
	if h.feed.Published() != 1 {
		t.Errorf("Published: got %d, want 1", h.feed.Published())
	}
}

func TestDurationResetsOnTransition(t *testing.T) {
	h := newHarness(t)
	h.set(t, healthy())
	h.tickN(5) // settle into Idle and accumulate

	if h.eng.Duration() == 0 {
		t.Fatal("expected accumulated duration in Idle")
	}

	snap := healthy()
	snap.WiFiNetworkCount = 12
	snap.WiFiSignalAvgDBm = -35
	h.set(t, snap)
	h.tick()

	if got := h.eng.State(); got != Excited {
		t.Fatalf("state: got %s, want Excited", got)
	}
	if h.eng.Duration() != 0 {
		t.Errorf("duration after transition: got %v, want 0", h.eng.Duration())
	}
	if h.eng.Previous() != Idle {
		t.Errorf("previous: got %s, want Idle", h.eng.Previous())
	}
}

func TestAmbientDecay(t *testing.T) {
	h := newHarness(t)

	// Pump excitement up first.
	snap := healthy()
	snap.WiFiNetworkCount = 12
	snap.WiFiSignalAvgDBm = -35
	h.set(t, snap)
	h.tickN(30)

	ex, _ := h.eng.Counters()
	if ex != 100 {
		t.Fatalf("excitement not saturated: got %d", ex)
	}

	// Calm environment: only the ambient decay touches excitement now.
	h.set(t, healthy())
	h.tickN(50) // 10s of ticks -> one decay step
	ex, _ = h.eng.Counters()
	if ex != 99 {
		t.Errorf("excitement after 10s calm: got %d, want 99", ex)
	}

	h.tickN(50)
	ex, _ = h.eng.Counters()
	if ex != 98 {
		t.Errorf("excitement after 20s calm: got %d, want 98", ex)
	}
}

func TestReadTimeoutSkipsTick(t *testing.T) {
	rec := sensor.New(10 * time.Millisecond)
	feed := NewFeed(DefaultFeedCapacity, DropNewest)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	eng := NewEngine(rec, feed, cfg, func() time.Time { return now })

	rec.Write(func(s *sensor.Snapshot) {
		s.FreeMemoryBytes = 50000
		s.UptimeSeconds = 500
	})
	now = now.Add(cfg.TickPeriod)
	eng.Tick()
	wantDur := eng.Duration()

	// Hold the record lock so the next read times out.
	hold := make(chan struct{})
	held := make(chan struct{})
	go func() {
		rec.Write(func(s *sensor.Snapshot) {
			close(held)
			<-hold
		})
	}()
	<-held

	now = now.Add(cfg.TickPeriod)
	eng.Tick()
	close(hold)

	if eng.Duration() != wantDur {
		t.Errorf("duration advanced on skipped tick: got %v, want %v", eng.Duration(), wantDur)
	}
	if got := eng.State(); got != Idle {
		t.Errorf("state changed on skipped tick: got %s", got)
	}
}

// TestCounterBoundsUnderRandomTicks checks the clamp invariant: no sequence
// of snapshots may push either counter outside [0, 100].
func TestCounterBoundsUnderRandomTicks(t *testing.T) {
	h := newHarness(t)
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		h.set(t, sensor.Snapshot{
			WiFiNetworkCount: uint32(rnd.Intn(25)),
			WiFiSignalAvgDBm: int32(-100 + rnd.Intn(80)),
			BLEDeviceCount:   uint32(rnd.Intn(12)),
			BLESignalBestDBm: int32(-100 + rnd.Intn(70)),
			FreeMemoryBytes:  uint64(rnd.Intn(100000)),
			UptimeSeconds:    uint64(rnd.Intn(1000)),
			UserInteraction:  rnd.Intn(2) == 0,
		})
		h.tick()

		ex, learn := h.eng.Counters()
		if ex < 0 || ex > 100 {
			t.Fatalf("tick %d: excitement out of bounds: %d", i, ex)
		}
		if learn < 0 || learn > 100 {
			t.Fatalf("tick %d: learning out of bounds: %d", i, learn)
		}
	}
}

func TestZeroSnapshotForcesError(t *testing.T) {
	// A zeroed record means the health producer has not reported yet:
	// free memory reads as 0, which the safety rule treats as critical.
	h := newHarness(t)
	h.tick()
	if got := h.eng.State(); got != Error {
		t.Errorf("state on zero snapshot: got %s, want Error", got)
	}
}
