package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedFrame marks a datagram body that is not a telemetry object.
// The ingestion loop logs and drops these; they never reach a caller.
var ErrMalformedFrame = errors.New("malformed telemetry frame")

// framePayload mirrors the JSON body drones send. Pointer fields separate
// "absent" from zero so defaults can be applied explicitly.
type framePayload struct {
	DroneID       string   `json:"droneId"`
	Battery       *float64 `json:"battery"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Altitude      *float64 `json:"altitude"`
	Speed         *float64 `json:"speed"`
	Heading       *float64 `json:"heading"`
	SignalQuality *float64 `json:"signalQuality"`
	Status        string   `json:"status"`
}

// DecodeFrame parses a telemetry JSON body for droneID into a Frame,
// applying defaults for absent fields: battery 100, signal quality 100,
// positions, speed and heading 0. The frame timestamp is set to now.
//
// A body that is not a JSON object fails with ErrMalformedFrame. A body
// carrying neither latitude nor battery is not telemetry and also fails,
// so the caller can fall through to its drop path.
func DecodeFrame(droneID string, body []byte, now time.Time) (Frame, error) {
	var p framePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if p.Latitude == nil && p.Battery == nil {
		return Frame{}, fmt.Errorf("%w: no latitude or battery field", ErrMalformedFrame)
	}
	if p.DroneID != "" {
		droneID = p.DroneID
	}
	return Frame{
		DroneID:       droneID,
		Battery:       orDefault(p.Battery, 100),
		Latitude:      orDefault(p.Latitude, 0),
		Longitude:     orDefault(p.Longitude, 0),
		Altitude:      orDefault(p.Altitude, 0),
		Speed:         orDefault(p.Speed, 0),
		Heading:       orDefault(p.Heading, 0),
		SignalQuality: orDefault(p.SignalQuality, 100),
		Status:        p.Status,
		UpdatedAt:     now.UTC(),
	}, nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
