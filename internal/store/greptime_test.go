package store

import (
	"context"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"skylink-gateway/internal/mission"
	"skylink-gateway/internal/telemetry"
)

type mockGreptimeClient struct {
	table *table.Table
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, nil
}

func TestGreptimeWriterTracking(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeWriter{client: m, trackingTable: "drone_tracking"}

	frame := telemetry.Frame{
		DroneID:       "d1",
		Battery:       40,
		Latitude:      14.7,
		SignalQuality: 100,
		Status:        "in-flight",
		UpdatedAt:     time.Unix(0, 0).UTC(),
	}
	if err := w.RecordTrackingPoint(context.Background(), frame); err != nil {
		t.Fatalf("RecordTrackingPoint: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}

	row := m.table.GetRows().Rows[0]
	if got := row.Values[0].GetStringValue(); got != "d1" {
		t.Errorf("drone_id = %s, want d1", got)
	}
	if got := row.Values[1].GetF64Value(); got != 40 {
		t.Errorf("battery = %v, want 40", got)
	}
	if got := row.Values[8].GetStringValue(); got != "in-flight" {
		t.Errorf("status = %s, want in-flight", got)
	}
}

func TestGreptimeWriterActivity(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeWriter{client: m, activityTable: "drone_activity"}

	if err := w.SetDroneActive(context.Background(), "d2", false); err != nil {
		t.Fatalf("SetDroneActive: %v", err)
	}
	row := m.table.GetRows().Rows[0]
	if got := row.Values[0].GetStringValue(); got != "d2" {
		t.Errorf("drone_id = %s, want d2", got)
	}
	if got := row.Values[1].GetBoolValue(); got {
		t.Errorf("active = %v, want false", got)
	}
}

func TestGreptimeWriterEarnings(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeWriter{client: m, earningsTable: "operator_earnings"}

	record := mission.EarningRecord{
		MissionID:  "m1",
		OperatorID: "op-1",
		Amount:     30.0,
		ComputedAt: time.Unix(0, 0).UTC(),
	}
	if err := w.WriteEarning(record); err != nil {
		t.Fatalf("WriteEarning: %v", err)
	}
	row := m.table.GetRows().Rows[0]
	if got := row.Values[0].GetStringValue(); got != "op-1" {
		t.Errorf("operator_id = %s, want op-1", got)
	}
	if got := row.Values[2].GetF64Value(); got != 30.0 {
		t.Errorf("amount = %v, want 30.0", got)
	}
}
