package scan

import (
	"context"
	"math/rand"
	"sync"
)

// SimScanner generates a plausible wireless environment without touching a
// radio. Counts drift up and down a little each cycle so the inferred state
// moves through its range during bench runs.
type SimScanner struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	wifi int // current network count, drifts per cycle
	ble  int
}

// NewSimScanner creates a SimScanner seeded for reproducible runs.
func NewSimScanner(seed int64) *SimScanner {
	rnd := rand.New(rand.NewSource(seed))
	return &SimScanner{
		rnd:  rnd,
		wifi: 4 + rnd.Intn(5),
		ble:  2 + rnd.Intn(4),
	}
}

// ScanWiFi returns a drifted set of simulated network RSSI readings.
func (s *SimScanner) ScanWiFi(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wifi = drift(s.rnd, s.wifi, 0, 20)
	return s.samples(s.wifi, -90, -30), nil
}

// ScanBLE returns a drifted set of simulated device RSSI readings.
func (s *SimScanner) ScanBLE(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ble = drift(s.rnd, s.ble, 0, 12)
	return s.samples(s.ble, -95, -40), nil
}

func (s *SimScanner) samples(n, weakest, strongest int) []int {
	out := make([]int, n)
	span := strongest - weakest
	for i := range out {
		out[i] = weakest + s.rnd.Intn(span+1)
	}
	return out
}

// drift nudges v by -2..+2, clamped to [lo, hi].
func drift(rnd *rand.Rand, v, lo, hi int) int {
	v += rnd.Intn(5) - 2
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
