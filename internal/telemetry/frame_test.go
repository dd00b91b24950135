package telemetry

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeFrame_DefaultsApplied(t *testing.T) {
	now := time.Unix(1700000000, 0)
	frame, err := DecodeFrame("D1", []byte(`{"latitude": 14.7, "battery": 40}`), now)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if frame.DroneID != "D1" {
		t.Errorf("DroneID = %q, want D1", frame.DroneID)
	}
	if frame.Battery != 40 || frame.Latitude != 14.7 {
		t.Errorf("explicit fields lost: battery=%v lat=%v", frame.Battery, frame.Latitude)
	}
	if frame.Longitude != 0 || frame.Altitude != 0 || frame.Speed != 0 || frame.Heading != 0 {
		t.Errorf("expected zero defaults, got %+v", frame)
	}
	if frame.SignalQuality != 100 {
		t.Errorf("SignalQuality = %v, want default 100", frame.SignalQuality)
	}
	if !frame.UpdatedAt.Equal(now.UTC()) {
		t.Errorf("UpdatedAt = %v, want %v", frame.UpdatedAt, now.UTC())
	}
}

func TestDecodeFrame_BatteryDefault(t *testing.T) {
	frame, err := DecodeFrame("D2", []byte(`{"latitude": 1.0, "status": "in-flight"}`), time.Now())
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if frame.Battery != 100 {
		t.Errorf("Battery = %v, want default 100", frame.Battery)
	}
	if frame.Status != "in-flight" {
		t.Errorf("Status = %q, want in-flight", frame.Status)
	}
}

func TestDecodeFrame_EmbeddedIDWins(t *testing.T) {
	frame, err := DecodeFrame("prefix-id", []byte(`{"droneId":"real-id","battery":55}`), time.Now())
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if frame.DroneID != "real-id" {
		t.Errorf("DroneID = %q, want real-id", frame.DroneID)
	}
}

func TestDecodeFrame_Malformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", "mavlink-binary-noise"},
		{"non-object", `[1,2,3]`},
		{"no telemetry fields", `{"foo": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeFrame("D1", []byte(tc.body), time.Now()); !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("err = %v, want ErrMalformedFrame", err)
			}
		})
	}
}
