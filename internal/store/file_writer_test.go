package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"skylink-gateway/internal/mission"
	"skylink-gateway/internal/telemetry"
)

func TestFileWriterTracking(t *testing.T) {
	dir := t.TempDir()
	trackingPath := filepath.Join(dir, "tracking.jsonl")

	fw, err := NewFileWriter(trackingPath, "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	frames := []telemetry.Frame{
		{DroneID: "d1", Battery: 90, Latitude: 14.7},
		{DroneID: "d2", Battery: 45, Status: "returning"},
	}
	for _, f := range frames {
		if err := fw.RecordTrackingPoint(context.Background(), f); err != nil {
			t.Fatalf("RecordTrackingPoint: %v", err)
		}
	}
	// Activity and earnings are disabled; writes are silently skipped.
	if err := fw.SetDroneActive(context.Background(), "d1", true); err != nil {
		t.Fatalf("SetDroneActive: %v", err)
	}
	if err := fw.WriteEarning(mission.EarningRecord{MissionID: "m1"}); err != nil {
		t.Fatalf("WriteEarning: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(trackingPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var got []telemetry.Frame
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var frame telemetry.Frame
		if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		got = append(got, frame)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[0].DroneID != "d1" || got[1].Status != "returning" {
		t.Errorf("unexpected frames: %+v", got)
	}
}

func TestFileWriterAllStreams(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(
		filepath.Join(dir, "tracking.jsonl"),
		filepath.Join(dir, "activity.jsonl"),
		filepath.Join(dir, "earnings.jsonl"),
	)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := fw.SetDroneActive(context.Background(), "d1", false); err != nil {
		t.Fatalf("SetDroneActive: %v", err)
	}
	if err := fw.WriteEarning(mission.EarningRecord{MissionID: "m1", OperatorID: "op-1", Amount: 30}); err != nil {
		t.Fatalf("WriteEarning: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	activity, err := os.ReadFile(filepath.Join(dir, "activity.jsonl"))
	if err != nil {
		t.Fatalf("read activity: %v", err)
	}
	var row activityRow
	if err := json.Unmarshal(activity, &row); err != nil {
		t.Fatalf("unmarshal activity: %v", err)
	}
	if row.DroneID != "d1" || row.Active {
		t.Errorf("unexpected activity row: %+v", row)
	}

	earnings, err := os.ReadFile(filepath.Join(dir, "earnings.jsonl"))
	if err != nil {
		t.Fatalf("read earnings: %v", err)
	}
	var rec mission.EarningRecord
	if err := json.Unmarshal(earnings, &rec); err != nil {
		t.Fatalf("unmarshal earnings: %v", err)
	}
	if rec.OperatorID != "op-1" || rec.Amount != 30 {
		t.Errorf("unexpected earning record: %+v", rec)
	}
}
