package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hydraesp/gotchi/internal/brain"
	"github.com/hydraesp/gotchi/internal/sensor"
	"github.com/hydraesp/gotchi/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		TickMs:     200,
		ScanMs:     5000,
		HealthMs:   1000,
		Broker:     "tcp://192.168.1.200:1883",
		HTTPAddr:   ":8080",
		QueueCap:   10,
		DropPolicy: "newest",
	}
	tr := status.NewTracker(start, "sess-1", cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, srv, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(brain.Excited, brain.Idle, 15, 0, sensor.Snapshot{
		WiFiNetworkCount: 12,
		WiFiSignalAvgDBm: -35,
		FreeMemoryBytes:  50000,
	}, 1, 0)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Gotchi.Mood != "Excited" {
		t.Errorf("mood: got %q, want Excited", sj.Gotchi.Mood)
	}
	if sj.Gotchi.Sensors.WiFiNetworks != 12 {
		t.Errorf("wifi_networks: got %d, want 12", sj.Gotchi.Sensors.WiFiNetworks)
	}
	if !sj.Gotchi.MQTT.Connected {
		t.Error("mqtt.connected: got false")
	}
}

func TestIndexPage(t *testing.T) {
	ts, _, tr := newTestServer(t)
	tr.Update(brain.Sniffing, brain.Idle, 40, 10, sensor.Snapshot{
		WiFiNetworkCount: 11,
	}, 1, 0)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := buf.String()

	if !strings.Contains(body, "Sniffing") {
		t.Error("page missing mood name")
	}
	if !strings.Contains(body, brain.Sniffing.Glyph()) {
		t.Error("page missing mood glyph")
	}
	if !strings.Contains(body, "sess-1") {
		t.Error("page missing session id")
	}
}

func TestNotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestWebsocketReceivesBroadcast(t *testing.T) {
	ts, srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	// Give the handler a moment to register the subscriber.
	deadline := time.Now().Add(2 * time.Second)
	for {
		srv.mu.Lock()
		n := len(srv.subs)
		srv.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	srv.Broadcast(brain.Transition{
		From: brain.Idle,
		To:   brain.Tracking,
		At:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev wsEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read ws event: %v", err)
	}
	if ev.To != "Tracking" {
		t.Errorf("to: got %q, want Tracking", ev.To)
	}
	if ev.Glyph != brain.Tracking.Glyph() {
		t.Errorf("glyph: got %q", ev.Glyph)
	}
}

func TestBroadcastWithoutSubscribersDoesNotBlock(t *testing.T) {
	_, srv, _ := newTestServer(t)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			srv.Broadcast(brain.Transition{From: brain.Idle, To: brain.Excited, At: time.Now()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked with no subscribers")
	}
}
