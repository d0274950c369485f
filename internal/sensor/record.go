// Package sensor holds the shared sensor record that producer tasks write
// into and the state engine reads from. The whole record sits behind a single
// bounded-wait lock: readers get a full consistent copy, writers apply a
// mutation to the record in place, and neither can observe or cause a
// partially updated record.
package sensor

import (
	"errors"
	"log"
	"sync/atomic"
	"time"
)

// ErrLockTimeout is returned when the record lock could not be acquired
// within the configured wait. Reads fall back to the last good snapshot;
// writes are dropped and a later cycle refreshes the value.
var ErrLockTimeout = errors.New("sensor: record lock timeout")

// DefaultLockWait bounds how long a reader or writer waits for the record
// lock before giving up. Tasks must keep their periodic cadence, so nothing
// blocks indefinitely.
const DefaultLockWait = 50 * time.Millisecond

// Snapshot is a complete copy of the sensor record at one instant.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	WiFiNetworkCount uint32
	WiFiSignalAvgDBm int32
	BLEDeviceCount   uint32
	BLESignalBestDBm int32
	FreeMemoryBytes  uint64
	UptimeSeconds    uint64
	SDPresent        bool
	UserInteraction  bool

	// Seq increments on every committed write. A torn read would show a
	// field mix from two different Seq values, which the tests check for.
	Seq uint64
}

// Record is the shared sensor record. All mutation funnels through one lock;
// there are deliberately no per-field locks, because a wifi writer and a
// memory writer racing on separate locks could silently drop each other's
// updates.
type Record struct {
	sem      chan struct{} // capacity 1; holding the token = holding the lock
	lockWait time.Duration
	snap     Snapshot
	last     atomic.Pointer[Snapshot] // last good copy for lock-free readers
}

// New creates an empty Record. lockWait <= 0 selects DefaultLockWait.
func New(lockWait time.Duration) *Record {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	r := &Record{
		sem:      make(chan struct{}, 1),
		lockWait: lockWait,
	}
	r.last.Store(&Snapshot{})
	return r
}

// acquire takes the record lock, waiting at most lockWait.
func (r *Record) acquire() bool {
	select {
	case r.sem <- struct{}{}:
		return true
	default:
	}
	t := time.NewTimer(r.lockWait)
	defer t.Stop()
	select {
	case r.sem <- struct{}{}:
		return true
	case <-t.C:
		return false
	}
}

func (r *Record) release() {
	<-r.sem
}

// Read returns a full consistent copy of the record. If the lock cannot be
// acquired in time it returns the last successfully observed snapshot along
// with ErrLockTimeout; the caller decides whether stale data is acceptable.
func (r *Record) Read() (Snapshot, error) {
	if !r.acquire() {
		return *r.last.Load(), ErrLockTimeout
	}
	s := r.snap
	r.last.Store(&s)
	r.release()
	return s, nil
}

// Write applies mutate to the record under the lock and bumps the write
// sequence. On lock timeout the write is dropped with a warning — data loss
// here is tolerated because the producer's next cycle carries fresh values.
// mutate must not block or perform I/O; the lock is held while it runs.
func (r *Record) Write(mutate func(*Snapshot)) error {
	if !r.acquire() {
		log.Printf("sensor: write dropped: %v", ErrLockTimeout)
		return ErrLockTimeout
	}
	mutate(&r.snap)
	r.snap.Seq++
	s := r.snap
	r.last.Store(&s)
	r.release()
	return nil
}

// Last returns the most recent successfully observed snapshot without
// touching the lock. Display consumers use this; it may lag behind the
// record by one write.
func (r *Record) Last() Snapshot {
	return *r.last.Load()
}
