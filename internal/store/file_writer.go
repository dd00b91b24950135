package store

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"skylink-gateway/internal/mission"
	"skylink-gateway/internal/telemetry"
)

// FileWriter logs tracking points, activity flips, and earning records to
// JSONL files. activityPath and earningsPath may be empty to skip those
// logs.
type FileWriter struct {
	trackingFile *os.File
	activityFile *os.File
	earningsFile *os.File
	trackingEnc  *json.Encoder
	activityEnc  *json.Encoder
	earningsEnc  *json.Encoder
}

// activityRow is the JSONL shape of an activity flip.
type activityRow struct {
	DroneID   string    `json:"droneId"`
	Active    bool      `json:"active"`
	Timestamp time.Time `json:"ts"`
}

// NewFileWriter creates a FileWriter.
func NewFileWriter(trackingPath, activityPath, earningsPath string) (*FileWriter, error) {
	tf, err := os.Create(trackingPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{trackingFile: tf, trackingEnc: json.NewEncoder(tf)}
	if activityPath != "" {
		af, err := os.Create(activityPath)
		if err != nil {
			tf.Close()
			return nil, err
		}
		fw.activityFile = af
		fw.activityEnc = json.NewEncoder(af)
	}
	if earningsPath != "" {
		ef, err := os.Create(earningsPath)
		if err != nil {
			if fw.activityFile != nil {
				fw.activityFile.Close()
			}
			tf.Close()
			return nil, err
		}
		fw.earningsFile = ef
		fw.earningsEnc = json.NewEncoder(ef)
	}
	return fw, nil
}

// RecordTrackingPoint logs a single telemetry frame.
func (f *FileWriter) RecordTrackingPoint(_ context.Context, frame telemetry.Frame) error {
	return f.trackingEnc.Encode(frame)
}

// SetDroneActive logs an activity flip, if enabled.
func (f *FileWriter) SetDroneActive(_ context.Context, droneID string, active bool) error {
	if f.activityEnc == nil {
		return nil
	}
	return f.activityEnc.Encode(activityRow{DroneID: droneID, Active: active, Timestamp: time.Now().UTC()})
}

// WriteEarning logs an earning record, if enabled.
func (f *FileWriter) WriteEarning(record mission.EarningRecord) error {
	if f.earningsEnc == nil {
		return nil
	}
	return f.earningsEnc.Encode(record)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.trackingFile, f.activityFile, f.earningsFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
