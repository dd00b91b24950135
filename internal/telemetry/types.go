// Wire types shared by the gateway, mission API, and persistence sinks.
package telemetry

import "time"

// Frame is one point-in-time snapshot of a drone's reported state. Frames
// are immutable once decoded; a new datagram supersedes the cached frame,
// it never mutates it in place.
type Frame struct {
	DroneID       string    `json:"droneId"`
	Battery       float64   `json:"battery"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Altitude      float64   `json:"altitude"`
	Speed         float64   `json:"speed"`
	Heading       float64   `json:"heading"`
	SignalQuality float64   `json:"signalQuality"`
	Status        string    `json:"status,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CommandType enumerates the commands a drone understands.
type CommandType string

const (
	CommandWaypoint     CommandType = "WAYPOINT"
	CommandReturnToBase CommandType = "RETURN_TO_BASE"
	CommandPause        CommandType = "PAUSE"
	CommandResume       CommandType = "RESUME"
	CommandLand         CommandType = "LAND"
	CommandCustom       CommandType = "CUSTOM"
)

// CommandEnvelope is a single operator command addressed to one drone.
// Envelopes are transient; they are built per dispatch and never stored.
type CommandEnvelope struct {
	DroneID string         `json:"droneId"`
	Type    CommandType    `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ValidCommandType reports whether t is a known command type.
func ValidCommandType(t CommandType) bool {
	switch t {
	case CommandWaypoint, CommandReturnToBase, CommandPause, CommandResume, CommandLand, CommandCustom:
		return true
	}
	return false
}
