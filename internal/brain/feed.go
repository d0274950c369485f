package brain

import (
	"log"
	"sync/atomic"
	"time"
)

// DropPolicy names what Publish does when the feed is full.
type DropPolicy string

const (
	// DropNewest discards the incoming event, preserving the oldest
	// undrained ones. A dropped event only delays the visible state —
	// consumers also see Current(), which is always fresh.
	DropNewest DropPolicy = "newest"

	// DropOldest discards the oldest undrained event to make room.
	DropOldest DropPolicy = "oldest"
)

// DefaultFeedCapacity matches the original device's transition queue depth.
const DefaultFeedCapacity = 10

// Transition is one committed state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Feed is a bounded FIFO of committed transitions plus an always-fresh
// mirror of the current state. Single producer (the engine); one or few
// consumers. Publish never blocks the engine's tick cadence.
type Feed struct {
	ch        chan Transition
	policy    DropPolicy
	current   atomic.Int32
	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewFeed creates a Feed. capacity <= 0 selects DefaultFeedCapacity; an
// unrecognized policy falls back to DropNewest.
func NewFeed(capacity int, policy DropPolicy) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	if policy != DropOldest {
		policy = DropNewest
	}
	return &Feed{
		ch:     make(chan Transition, capacity),
		policy: policy,
	}
}

// Publish enqueues a transition and refreshes the current-state mirror.
// On a full queue the configured drop policy applies; the drop is logged
// and counted, never blocking the caller.
func (f *Feed) Publish(t Transition) bool {
	f.current.Store(int32(t.To))
	for {
		select {
		case f.ch <- t:
			f.published.Add(1)
			return true
		default:
		}
		if f.policy == DropNewest {
			f.dropped.Add(1)
			log.Printf("brain: feed full, dropping transition %s -> %s", t.From, t.To)
			return false
		}
		// DropOldest: evict one and retry.
		select {
		case old := <-f.ch:
			f.dropped.Add(1)
			log.Printf("brain: feed full, dropping oldest transition %s -> %s", old.From, old.To)
		default:
		}
	}
}

// Drain returns at most one pending transition. Display consumers call this
// once per UI tick.
func (f *Feed) Drain() (Transition, bool) {
	select {
	case t := <-f.ch:
		return t, true
	default:
		return Transition{}, false
	}
}

// Current returns the engine's current state from the lock-free mirror.
// It is fresh even when transition events have been dropped.
func (f *Feed) Current() State {
	return State(f.current.Load())
}

// setCurrent refreshes the mirror without publishing. The engine calls it
// once at startup so consumers see Idle before the first transition.
func (f *Feed) setCurrent(s State) {
	f.current.Store(int32(s))
}

// Published returns the number of successfully enqueued transitions.
func (f *Feed) Published() uint64 {
	return f.published.Load()
}

// Dropped returns the number of transitions lost to the drop policy.
func (f *Feed) Dropped() uint64 {
	return f.dropped.Load()
}
