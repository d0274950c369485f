package scan

import "context"

// FakeScanner returns scripted sample sets for tests. Each scan cycle
// consumes the next entry; when the script runs out, the last entry repeats.
type FakeScanner struct {
	// WiFi and BLE contain per-cycle sample sets.
	WiFi [][]int
	BLE  [][]int

	// WiFiErr / BLEErr, if set, are returned by the respective scan.
	WiFiErr error
	BLEErr  error

	wifiIdx int
	bleIdx  int
}

// NewFakeScanner creates a FakeScanner with the given scripts.
func NewFakeScanner(wifi, ble [][]int) *FakeScanner {
	return &FakeScanner{WiFi: wifi, BLE: ble}
}

// ScanWiFi returns the next scripted WiFi sample set.
func (f *FakeScanner) ScanWiFi(ctx context.Context) ([]int, error) {
	if f.WiFiErr != nil {
		return nil, f.WiFiErr
	}
	return next(f.WiFi, &f.wifiIdx), nil
}

// ScanBLE returns the next scripted BLE sample set.
func (f *FakeScanner) ScanBLE(ctx context.Context) ([]int, error) {
	if f.BLEErr != nil {
		return nil, f.BLEErr
	}
	return next(f.BLE, &f.bleIdx), nil
}

func next(script [][]int, idx *int) []int {
	if len(script) == 0 {
		return nil
	}
	if *idx >= len(script) {
		return script[len(script)-1]
	}
	s := script[*idx]
	*idx++
	return s
}
