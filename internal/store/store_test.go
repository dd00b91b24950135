package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"skylink-gateway/internal/mission"
	"skylink-gateway/internal/telemetry"
)

type recordingSink struct {
	activity []string
	frames   []telemetry.Frame
	earnings []mission.EarningRecord
	fail     bool
}

func (r *recordingSink) SetDroneActive(_ context.Context, droneID string, active bool) error {
	if r.fail {
		return errors.New("sink down")
	}
	r.activity = append(r.activity, droneID)
	return nil
}

func (r *recordingSink) RecordTrackingPoint(_ context.Context, frame telemetry.Frame) error {
	if r.fail {
		return errors.New("sink down")
	}
	r.frames = append(r.frames, frame)
	return nil
}

func (r *recordingSink) WriteEarning(record mission.EarningRecord) error {
	if r.fail {
		return errors.New("sink down")
	}
	r.earnings = append(r.earnings, record)
	return nil
}

func TestDronesTrackingMarksActive(t *testing.T) {
	sink := &recordingSink{}
	d := NewDrones(sink)

	err := d.RecordTrackingPoint(context.Background(), telemetry.Frame{DroneID: "d1", Battery: 80})
	if err != nil {
		t.Fatalf("RecordTrackingPoint: %v", err)
	}

	rec, err := d.GetDrone("d1")
	if err != nil {
		t.Fatalf("GetDrone: %v", err)
	}
	if !rec.Active {
		t.Errorf("expected drone to be active after a tracking point")
	}
	if len(sink.frames) != 1 || sink.frames[0].DroneID != "d1" {
		t.Errorf("frame not forwarded to sink: %+v", sink.frames)
	}
}

func TestDronesActivityFlip(t *testing.T) {
	d := NewDrones(nil)
	d.now = func() time.Time { return time.Unix(100, 0) }

	if err := d.SetDroneActive(context.Background(), "d1", true); err != nil {
		t.Fatalf("SetDroneActive: %v", err)
	}
	if err := d.SetDroneActive(context.Background(), "d1", false); err != nil {
		t.Fatalf("SetDroneActive: %v", err)
	}

	rec, err := d.GetDrone("d1")
	if err != nil {
		t.Fatalf("GetDrone: %v", err)
	}
	if rec.Active {
		t.Errorf("expected drone to be inactive after flip")
	}
	if !rec.UpdatedAt.Equal(time.Unix(100, 0).UTC()) {
		t.Errorf("UpdatedAt = %v", rec.UpdatedAt)
	}
}

func TestDronesGetUnknown(t *testing.T) {
	d := NewDrones(nil)
	if _, err := d.GetDrone("ghost"); !errors.Is(err, ErrUnknownDrone) {
		t.Fatalf("expected ErrUnknownDrone, got %v", err)
	}
}

func TestDronesList(t *testing.T) {
	d := NewDrones(nil)
	d.SetDroneActive(context.Background(), "d1", true)
	d.SetDroneActive(context.Background(), "d2", false)

	if got := len(d.ListDrones()); got != 2 {
		t.Fatalf("ListDrones returned %d records, want 2", got)
	}
}

func TestDronesRecordsKeptOnSinkFailure(t *testing.T) {
	sink := &recordingSink{fail: true}
	d := NewDrones(sink)

	if err := d.SetDroneActive(context.Background(), "d1", true); err == nil {
		t.Fatalf("expected sink error to surface")
	}
	// The in-memory record is updated regardless.
	rec, err := d.GetDrone("d1")
	if err != nil || !rec.Active {
		t.Fatalf("record lost on sink failure: %+v, %v", rec, err)
	}
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	good := &recordingSink{}
	bad := &recordingSink{fail: true}
	m := NewMultiSink(good, bad)

	err := m.WriteEarning(mission.EarningRecord{MissionID: "m1", Amount: 10})
	if err == nil {
		t.Fatalf("expected joined error from failing sink")
	}
	if len(good.earnings) != 1 {
		t.Errorf("healthy sink skipped: %+v", good.earnings)
	}
}
