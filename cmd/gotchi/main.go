// Command gotchi runs the companion daemon: periodic sensor producers feed a
// shared record, a state engine infers the current mood, and transitions go
// out to MQTT and the HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/hydraesp/gotchi/internal/brain"
	"github.com/hydraesp/gotchi/internal/config"
	"github.com/hydraesp/gotchi/internal/health"
	"github.com/hydraesp/gotchi/internal/mqtt"
	"github.com/hydraesp/gotchi/internal/producer"
	"github.com/hydraesp/gotchi/internal/scan"
	"github.com/hydraesp/gotchi/internal/sensor"
	"github.com/hydraesp/gotchi/internal/status"
	"github.com/hydraesp/gotchi/internal/touch"
	"github.com/hydraesp/gotchi/internal/web"
)

func main() {
	defs := config.Default()

	cfgPath := flag.String("config", "", "YAML config file (flags override file values)")
	tick := flag.Duration("tick", defs.Tick.Std(), "state inference interval")
	scanPeriod := flag.Duration("scan", defs.ScanPeriod.Std(), "wireless survey interval")
	healthPeriod := flag.Duration("health", defs.HealthPeriod.Std(), "system health interval")
	touchPeriod := flag.Duration("touch", defs.TouchPeriod.Std(), "touch poll interval")
	heartbeat := flag.Duration("heartbeat", defs.Heartbeat.Std(), "Heartbeat interval (0 to disable)")
	broker := flag.String("broker", defs.Broker, "MQTT broker address")
	httpAddr := flag.String("http", defs.HTTPAddr, "HTTP status address (empty to disable)")
	queueCap := flag.Int("queue", defs.QueueCapacity, "transition queue capacity")
	dropPolicy := flag.String("drop-policy", defs.DropPolicy, `what to drop when the queue is full ("newest" or "oldest")`)
	sdPath := flag.String("sd-path", defs.SDPath, "path probed for SD card presence (empty to disable)")
	touchPin := flag.Int("touch-pin", defs.TouchPin, "BCM pin number for the touch input")
	memBudget := flag.Uint64("mem-budget", defs.MemBudget, "memory budget in bytes for free-memory reporting")
	scanSeed := flag.Int64("scan-seed", defs.ScanSeed, "simulated scanner seed (0 uses the clock)")
	printState := flag.Bool("print-state", false, "Print current state and exit")

	flag.Parse()

	cfg := defs
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		cfg = loaded
	}

	// Flags passed explicitly win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tick":
			cfg.Tick = config.Duration(*tick)
		case "scan":
			cfg.ScanPeriod = config.Duration(*scanPeriod)
		case "health":
			cfg.HealthPeriod = config.Duration(*healthPeriod)
		case "touch":
			cfg.TouchPeriod = config.Duration(*touchPeriod)
		case "heartbeat":
			cfg.Heartbeat = config.Duration(*heartbeat)
		case "broker":
			cfg.Broker = *broker
		case "http":
			cfg.HTTPAddr = *httpAddr
		case "queue":
			cfg.QueueCapacity = *queueCap
		case "drop-policy":
			cfg.DropPolicy = *dropPolicy
		case "sd-path":
			cfg.SDPath = *sdPath
		case "touch-pin":
			cfg.TouchPin = *touchPin
		case "mem-budget":
			cfg.MemBudget = *memBudget
		case "scan-seed":
			cfg.ScanSeed = *scanSeed
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, printState bool) error {
	start := time.Now()

	rec := sensor.New(cfg.LockWait.Std())
	feed := brain.NewFeed(cfg.QueueCapacity, brain.DropPolicy(cfg.DropPolicy))

	seed := cfg.ScanSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	scanner := scan.NewSimScanner(seed)
	monitor := health.NewRuntimeMonitor(start, cfg.MemBudget, cfg.SDPath)

	// Touch hardware is optional: without a usable GPIO line the daemon runs
	// with interaction permanently off.
	var reader touch.Reader
	hw, err := touch.NewRealReader(cfg.TouchPin)
	if err != nil {
		log.Printf("touch unavailable, running without interaction input: %v", err)
		reader = touch.NoneReader{}
	} else {
		reader = hw
		defer hw.Close()
	}
	latch := touch.NewLatch(reader, 0)

	scanProd := producer.New("scan", cfg.ScanPeriod.Std(), rec, producer.ScanPoll(scanner))
	healthProd := producer.New("health", cfg.HealthPeriod.Std(), rec, producer.HealthPoll(monitor))
	touchProd := producer.New("touch", cfg.TouchPeriod.Std(), rec, producer.TouchPoll(latch, time.Now))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Prime the record before the first inference tick so the engine never
	// sees an all-zero snapshot at boot.
	for _, p := range []*producer.Producer{healthProd, scanProd, touchProd} {
		if err := p.Cycle(ctx); err != nil {
			log.Printf("%s producer: initial cycle: %v", p.Name(), err)
		}
	}

	brainCfg := brain.DefaultConfig()
	brainCfg.TickPeriod = cfg.Tick.Std()
	brainCfg.LowMemoryThreshold = cfg.LowMemoryThreshold
	brainCfg.HighWiFiThreshold = cfg.HighWiFiThreshold
	brainCfg.ExcitedSignalDBm = cfg.ExcitedSignalDBm
	brainCfg.TrackingBLECount = cfg.TrackingBLECount
	brainCfg.StrongBLEThreshold = cfg.StrongBLEThreshold
	brainCfg.SniffDwell = cfg.SniffDwell.Std()
	brainCfg.SleepDwell = cfg.SleepDwell.Std()
	engine := brain.NewEngine(rec, feed, brainCfg, time.Now)

	// Print state mode
	if printState {
		engine.Tick()
		st := feed.Current()
		snap := rec.Last()
		fmt.Printf("%s %s (wifi=%d ble=%d free=%d uptime=%ds)\n",
			st.Glyph(), st, snap.WiFiNetworkCount, snap.BLEDeviceCount,
			snap.FreeMemoryBytes, snap.UptimeSeconds)
		return nil
	}

	sessionID := uuid.NewString()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(start, sessionID, status.Config{
		TickMs:      cfg.Tick.Std().Milliseconds(),
		ScanMs:      cfg.ScanPeriod.Std().Milliseconds(),
		HealthMs:    cfg.HealthPeriod.Std().Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Std().Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		QueueCap:    cfg.QueueCapacity,
		DropPolicy:  cfg.DropPolicy,
	})

	publisher := mqtt.NewRealPublisher(cfg.Broker, sessionID)
	defer publisher.Close()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	var srv *web.Server
	if cfg.HTTPAddr != "" {
		srv = web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	go scanProd.Run(ctx)
	go healthProd.Run(ctx)
	go touchProd.Run(ctx)

	log.Printf("started: session=%s tick=%v scan=%v health=%v broker=%s",
		sessionID, cfg.Tick.Std(), cfg.ScanPeriod.Std(), cfg.HealthPeriod.Std(), cfg.Broker)

	ticker := time.NewTicker(cfg.Tick.Std())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(engine, feed, rec, publisher, publisher, tracker, srv,
		cfg.Heartbeat.Std(), time.Now, ticker.C, sigCh)
}

// runLoop drives the inference ticks and the display consumers. The engine is
// single-owner state, so ticking and draining both happen here; producers run
// on their own goroutines and only share the sensor record.
func runLoop(engine *brain.Engine, feed *brain.Feed, rec *sensor.Record, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, srv *web.Server, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			engine.Tick()

			// One transition per UI tick; Current() stays fresh regardless.
			if tr, ok := feed.Drain(); ok {
				log.Printf("event: %s -> %s %s", tr.From, tr.To, tr.To.Glyph())
				if err := publisher.Publish(tr); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
				if srv != nil {
					srv.Broadcast(tr)
				}
			}

			if tracker != nil {
				excitement, learning := engine.Counters()
				tracker.Update(engine.State(), engine.Previous(), excitement, learning,
					rec.Last(), feed.Published(), feed.Dropped())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}
