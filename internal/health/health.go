// Package health abstracts the system-health collaborator: free memory,
// uptime, and storage presence. The real implementation samples the Go
// runtime against a fixed memory budget so the low-memory rule has a
// meaningful signal on a host with effectively unlimited RAM.
package health

// Stats is one health reading.
type Stats struct {
	FreeMemoryBytes uint64
	UptimeSeconds   uint64
	SDPresent       bool
}

// Monitor supplies health readings.
type Monitor interface {
	Stats() (Stats, error)
}
