package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Gotchi GotchiInner `json:"gotchi"`
}

// GotchiInner contains the status details.
type GotchiInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Mood          string      `json:"mood"`
	Glyph         string      `json:"glyph"`
	Previous      string      `json:"previous"`
	Excitement    int         `json:"excitement"`
	Learning      int         `json:"learning"`
	Sensors       SensorsJSON `json:"sensors"`
	Feed          FeedJSON    `json:"feed"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	SessionID     string      `json:"session_id"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Config        ConfigJSON  `json:"config"`
}

// SensorsJSON is the JSON representation of the sensor record.
type SensorsJSON struct {
	WiFiNetworks    uint32 `json:"wifi_networks"`
	WiFiSignalDBm   int32  `json:"wifi_signal_dbm"`
	BLEDevices      uint32 `json:"ble_devices"`
	BLEBestDBm      int32  `json:"ble_best_dbm"`
	FreeMemoryBytes uint64 `json:"free_memory_bytes"`
	UptimeSeconds   uint64 `json:"uptime_seconds"`
	SDPresent       bool   `json:"sd_present"`
	UserInteraction bool   `json:"user_interaction"`
	Seq             uint64 `json:"seq"`
}

// FeedJSON reports transition feed counters.
type FeedJSON struct {
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	ScanMs      int64  `json:"scan_ms"`
	HealthMs    int64  `json:"health_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	QueueCap    int    `json:"queue_capacity"`
	DropPolicy  string `json:"drop_policy"`
}

func buildInner(snap Snapshot) GotchiInner {
	return GotchiInner{
		Mood:       snap.State.String(),
		Glyph:      snap.State.Glyph(),
		Previous:   snap.Previous.String(),
		Excitement: snap.Excitement,
		Learning:   snap.Learning,
		Sensors: SensorsJSON{
			WiFiNetworks:    snap.Sensors.WiFiNetworkCount,
			WiFiSignalDBm:   snap.Sensors.WiFiSignalAvgDBm,
			BLEDevices:      snap.Sensors.BLEDeviceCount,
			BLEBestDBm:      snap.Sensors.BLESignalBestDBm,
			FreeMemoryBytes: snap.Sensors.FreeMemoryBytes,
			UptimeSeconds:   snap.Sensors.UptimeSeconds,
			SDPresent:       snap.Sensors.SDPresent,
			UserInteraction: snap.Sensors.UserInteraction,
			Seq:             snap.Sensors.Seq,
		},
		Feed: FeedJSON{
			Published: snap.Transitions,
			Dropped:   snap.Dropped,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		SessionID:     snap.SessionID,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			ScanMs:      snap.Config.ScanMs,
			HealthMs:    snap.Config.HealthMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			QueueCap:    snap.Config.QueueCap,
			DropPolicy:  snap.Config.DropPolicy,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Gotchi: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Gotchi: inner})
	return data
}
