package store

import (
	"context"
	"errors"

	"skylink-gateway/internal/mission"
	"skylink-gateway/internal/telemetry"
)

// MultiSink fans every write out to multiple sinks. All sinks are tried
// even when one fails; the errors are joined.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a MultiSink.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// SetDroneActive forwards the activity flip to all sinks.
func (m *MultiSink) SetDroneActive(ctx context.Context, droneID string, active bool) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.SetDroneActive(ctx, droneID, active); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordTrackingPoint forwards the frame to all sinks.
func (m *MultiSink) RecordTrackingPoint(ctx context.Context, frame telemetry.Frame) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordTrackingPoint(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteEarning forwards the record to all sinks.
func (m *MultiSink) WriteEarning(record mission.EarningRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteEarning(record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
