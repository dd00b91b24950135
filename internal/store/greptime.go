package store

import (
	"context"
	"fmt"
	"os"
	"time"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"

	"skylink-gateway/internal/mission"
	"skylink-gateway/internal/telemetry"
)

// Table names, overridable via environment for shared clusters.
var (
	TrackingTableName = envOr("TRACKING_TABLE", "drone_tracking")
	ActivityTableName = envOr("DRONE_ACTIVITY_TABLE", "drone_activity")
	EarningsTableName = envOr("OPERATOR_EARNINGS_TABLE", "operator_earnings")
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func nowUTC() time.Time { return time.Now().UTC() }

// ingestClient abstracts the GreptimeDB client for testing.
type ingestClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeWriter persists tracking points, activity flips, and earning
// records to GreptimeDB. Tables are auto-created by the server on first
// write.
type GreptimeWriter struct {
	client        ingestClient
	trackingTable string
	activityTable string
	earningsTable string
}

// NewGreptimeWriter connects to a GreptimeDB instance.
func NewGreptimeWriter(host, database string) (*GreptimeWriter, error) {
	cfg := greptime.NewConfig(host).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeWriter{
		client:        client,
		trackingTable: TrackingTableName,
		activityTable: ActivityTableName,
		earningsTable: EarningsTableName,
	}, nil
}

// RecordTrackingPoint inserts one telemetry frame into the tracking table.
func (w *GreptimeWriter) RecordTrackingPoint(ctx context.Context, frame telemetry.Frame) error {
	tbl, err := table.New(w.trackingTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("drone_id", types.STRING); err != nil {
		return err
	}
	for _, col := range []string{"battery", "latitude", "longitude", "altitude", "speed", "heading", "signal_quality"} {
		if err := tbl.AddFieldColumn(col, types.FLOAT64); err != nil {
			return err
		}
	}
	if err := tbl.AddFieldColumn("status", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	if err := tbl.AddRow(frame.DroneID,
		frame.Battery, frame.Latitude, frame.Longitude, frame.Altitude,
		frame.Speed, frame.Heading, frame.SignalQuality,
		frame.Status, frame.UpdatedAt); err != nil {
		return err
	}
	_, err = w.client.Write(ctx, tbl)
	return err
}

// SetDroneActive appends an activity flip to the activity table.
func (w *GreptimeWriter) SetDroneActive(ctx context.Context, droneID string, active bool) error {
	tbl, err := table.New(w.activityTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("drone_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("active", types.BOOLEAN); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	if err := tbl.AddRow(droneID, active, nowUTC()); err != nil {
		return err
	}
	_, err = w.client.Write(ctx, tbl)
	return err
}

// WriteEarning appends an operator payout record.
func (w *GreptimeWriter) WriteEarning(record mission.EarningRecord) error {
	tbl, err := table.New(w.earningsTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("operator_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("mission_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("amount", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	if err := tbl.AddRow(record.OperatorID, record.MissionID, record.Amount, record.ComputedAt); err != nil {
		return err
	}
	_, err = w.client.Write(context.Background(), tbl)
	return err
}
