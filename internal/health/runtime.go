package health

import (
	"os"
	"runtime"
	"time"
)

// DefaultMemBudget mirrors a small device heap. Free memory is reported as
// budget minus live heap, floored at zero.
const DefaultMemBudget = 4 << 20 // 4 MiB

// RuntimeMonitor reads health stats from the Go runtime and the filesystem.
type RuntimeMonitor struct {
	start     time.Time
	memBudget uint64
	sdPath    string // probed with os.Stat; empty means no SD slot
	now       func() time.Time
}

// NewRuntimeMonitor creates a monitor. memBudget <= 0 selects
// DefaultMemBudget; sdPath may be empty.
func NewRuntimeMonitor(start time.Time, memBudget uint64, sdPath string) *RuntimeMonitor {
	if memBudget == 0 {
		memBudget = DefaultMemBudget
	}
	return &RuntimeMonitor{
		start:     start,
		memBudget: memBudget,
		sdPath:    sdPath,
		now:       time.Now,
	}
}

// Stats returns the current health reading.
func (m *RuntimeMonitor) Stats() (Stats, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	free := uint64(0)
	if ms.HeapAlloc < m.memBudget {
		free = m.memBudget - ms.HeapAlloc
	}

	sd := false
	if m.sdPath != "" {
		if _, err := os.Stat(m.sdPath); err == nil {
			sd = true
		}
	}

	return Stats{
		FreeMemoryBytes: free,
		UptimeSeconds:   uint64(m.now().Sub(m.start) / time.Second),
		SDPresent:       sd,
	}, nil
}
