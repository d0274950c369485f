// Package scan abstracts the wireless survey collaborator. The core never
// enumerates networks itself; it consumes per-sample RSSI readings from a
// Scanner and reduces them to the aggregate figures the sensor record holds.
package scan

import "context"

// SentinelRSSI stands in for "no samples observed". Using a fixed very-low
// value keeps the aggregation total and avoids dividing by zero.
const SentinelRSSI = -100

// Scanner supplies raw RSSI samples for nearby WiFi networks and BLE
// devices. Implementations own their radio mechanics; the core only reduces
// the sample lists.
type Scanner interface {
	// ScanWiFi returns one RSSI reading in dBm per network seen.
	ScanWiFi(ctx context.Context) ([]int, error)

	// ScanBLE returns one RSSI reading in dBm per device seen.
	ScanBLE(ctx context.Context) ([]int, error)
}

// Survey is the reduced result of one scan cycle.
type Survey struct {
	WiFiCount  int
	WiFiAvgDBm int
	BLECount   int
	BLEBestDBm int
}

// AverageRSSI returns the arithmetic mean of samples, or SentinelRSSI when
// there are none.
func AverageRSSI(samples []int) int {
	if len(samples) == 0 {
		return SentinelRSSI
	}
	total := 0
	for _, s := range samples {
		total += s
	}
	return total / len(samples)
}

// BestRSSI returns the strongest (maximum) sample, or SentinelRSSI when
// there are none. BLE proximity tracking cares about the closest device,
// not the crowd average.
func BestRSSI(samples []int) int {
	if len(samples) == 0 {
		return SentinelRSSI
	}
	best := samples[0]
	for _, s := range samples[1:] {
		if s > best {
			best = s
		}
	}
	return best
}

// Run performs one full scan cycle and reduces the results.
func Run(ctx context.Context, sc Scanner) (Survey, error) {
	wifi, err := sc.ScanWiFi(ctx)
	if err != nil {
		return Survey{}, err
	}
	ble, err := sc.ScanBLE(ctx)
	if err != nil {
		return Survey{}, err
	}
	return Survey{
		WiFiCount:  len(wifi),
		WiFiAvgDBm: AverageRSSI(wifi),
		BLECount:   len(ble),
		BLEBestDBm: BestRSSI(ble),
	}, nil
}
