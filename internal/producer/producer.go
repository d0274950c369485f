// Package producer runs the periodic sensor-producing tasks. One Producer
// type covers every variant: it is parameterized by which collaborator it
// polls and which subset of the sensor record it owns, so the scan, health,
// and touch tasks share a single loop implementation.
package producer

import (
	"context"
	"log"
	"time"

	"github.com/hydraesp/gotchi/internal/health"
	"github.com/hydraesp/gotchi/internal/scan"
	"github.com/hydraesp/gotchi/internal/sensor"
	"github.com/hydraesp/gotchi/internal/touch"
)

// PollFunc acquires a fresh reading from a collaborator and returns the
// mutation that writes it into the sensor record. The poll itself may do
// I/O; the returned mutation must not — it runs under the record lock.
type PollFunc func(ctx context.Context) (func(*sensor.Snapshot), error)

// Producer periodically polls a collaborator and writes its field subset
// into the shared record.
type Producer struct {
	name   string
	period time.Duration
	rec    *sensor.Record
	poll   PollFunc
}

// New creates a Producer. Each producer owns a disjoint subset of record
// fields; they serialize only through the record's single lock.
func New(name string, period time.Duration, rec *sensor.Record, poll PollFunc) *Producer {
	return &Producer{name: name, period: period, rec: rec, poll: poll}
}

// Name returns the producer's name, used in logs.
func (p *Producer) Name() string { return p.name }

// Cycle runs one poll-and-write cycle. Poll and write failures are local to
// the cycle: they are logged and the next cycle retries with fresh values.
func (p *Producer) Cycle(ctx context.Context) error {
	mutate, err := p.poll(ctx)
	if err != nil {
		return err
	}
	return p.rec.Write(mutate)
}

// Run ticks on the producer's period until ctx is cancelled. No failure in
// the loop body is fatal; each cycle treats its own failures as local and
// continues to the next tick.
func (p *Producer) Run(ctx context.Context) {
	log.Printf("%s producer started: period=%v", p.name, p.period)
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("%s producer stopped", p.name)
			return
		case <-ticker.C:
			if err := p.Cycle(ctx); err != nil {
				log.Printf("%s producer: %v", p.name, err)
			}
		}
	}
}

// ScanPoll polls the wireless survey collaborator. Owns the wifi/ble fields.
func ScanPoll(sc scan.Scanner) PollFunc {
	return func(ctx context.Context) (func(*sensor.Snapshot), error) {
		survey, err := scan.Run(ctx, sc)
		if err != nil {
			return nil, err
		}
		return func(s *sensor.Snapshot) {
			s.WiFiNetworkCount = uint32(survey.WiFiCount)
			s.WiFiSignalAvgDBm = int32(survey.WiFiAvgDBm)
			s.BLEDeviceCount = uint32(survey.BLECount)
			s.BLESignalBestDBm = int32(survey.BLEBestDBm)
		}, nil
	}
}

// HealthPoll polls the system-health collaborator. Owns the memory, uptime,
// and SD fields.
func HealthPoll(mon health.Monitor) PollFunc {
	return func(ctx context.Context) (func(*sensor.Snapshot), error) {
		stats, err := mon.Stats()
		if err != nil {
			return nil, err
		}
		return func(s *sensor.Snapshot) {
			s.FreeMemoryBytes = stats.FreeMemoryBytes
			s.UptimeSeconds = stats.UptimeSeconds
			s.SDPresent = stats.SDPresent
		}, nil
	}
}

// TouchPoll polls the touch latch. Owns the user-interaction field.
func TouchPoll(latch *touch.Latch, now func() time.Time) PollFunc {
	return func(ctx context.Context) (func(*sensor.Snapshot), error) {
		active, err := latch.Sample(now())
		if err != nil {
			return nil, err
		}
		return func(s *sensor.Snapshot) {
			s.UserInteraction = active
		}, nil
	}
}
