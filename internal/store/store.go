// Persistence collaborators for the gateway and mission store. Everything
// here is best-effort: the in-memory core is the source of truth and sink
// failures are logged by the callers, never propagated.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"skylink-gateway/internal/mission"
	"skylink-gateway/internal/telemetry"
)

// ErrUnknownDrone is returned by GetDrone for drones never reported on.
var ErrUnknownDrone = errors.New("unknown drone")

// Sink receives drone activity, tracking points, and earning records.
type Sink interface {
	SetDroneActive(ctx context.Context, droneID string, active bool) error
	RecordTrackingPoint(ctx context.Context, frame telemetry.Frame) error
	WriteEarning(record mission.EarningRecord) error
}

// DroneRecord is the last known persistence-level state of a drone.
type DroneRecord struct {
	DroneID   string    `json:"droneId"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Drones keeps last-write-wins drone records in memory and forwards every
// update to an optional downstream sink. It is the gateway's persistence
// collaborator and backs the /api/drones read path.
type Drones struct {
	mu      sync.Mutex
	records map[string]DroneRecord
	sink    Sink // optional
	now     func() time.Time
}

// NewDrones returns an empty drone store forwarding to sink (may be nil).
func NewDrones(sink Sink) *Drones {
	return &Drones{
		records: make(map[string]DroneRecord),
		sink:    sink,
		now:     time.Now,
	}
}

// SetDroneActive updates the drone's activity flag and forwards it.
func (d *Drones) SetDroneActive(ctx context.Context, droneID string, active bool) error {
	d.mu.Lock()
	d.records[droneID] = DroneRecord{DroneID: droneID, Active: active, UpdatedAt: d.now().UTC()}
	d.mu.Unlock()
	if d.sink == nil {
		return nil
	}
	return d.sink.SetDroneActive(ctx, droneID, active)
}

// RecordTrackingPoint marks the drone active and forwards the frame.
func (d *Drones) RecordTrackingPoint(ctx context.Context, frame telemetry.Frame) error {
	d.mu.Lock()
	d.records[frame.DroneID] = DroneRecord{DroneID: frame.DroneID, Active: true, UpdatedAt: d.now().UTC()}
	d.mu.Unlock()
	if d.sink == nil {
		return nil
	}
	return d.sink.RecordTrackingPoint(ctx, frame)
}

// WriteEarning forwards an earning record to the sink.
func (d *Drones) WriteEarning(record mission.EarningRecord) error {
	if d.sink == nil {
		return nil
	}
	return d.sink.WriteEarning(record)
}

// GetDrone returns the last known record for droneID.
func (d *Drones) GetDrone(droneID string) (DroneRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[droneID]
	if !ok {
		return DroneRecord{}, ErrUnknownDrone
	}
	return rec, nil
}

// ListDrones returns all known records, in no particular order.
func (d *Drones) ListDrones() []DroneRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DroneRecord, 0, len(d.records))
	for _, rec := range d.records {
		out = append(out, rec)
	}
	return out
}
