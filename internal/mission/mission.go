// Mission lifecycle state machine for delivery requests.
package mission

import (
	"errors"
	"fmt"
	"time"
)

// Status is a mission's lifecycle state. The set is closed; "confirmed"
// from legacy callers parses to StatusAssigned and is never stored.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusInFlight  Status = "in-flight"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Priority of a delivery request.
type Priority string

const (
	PriorityStandard Priority = "standard"
	PriorityExpress  Priority = "express"
	PriorityCritical Priority = "critical"
)

var (
	// ErrValidation marks a create payload missing required fields.
	ErrValidation = errors.New("invalid mission payload")

	// ErrNotFound marks an unknown mission id.
	ErrNotFound = errors.New("mission not found")

	// ErrInvalidTransition marks a status change the lifecycle graph
	// does not allow.
	ErrInvalidTransition = errors.New("invalid mission status transition")
)

// Payload is the client-supplied part of a mission.
type Payload struct {
	ClientName     string   `json:"clientName,omitempty"`
	Pickup         string   `json:"pickup"`
	Dropoff        string   `json:"dropoff"`
	Priority       Priority `json:"priority,omitempty"`
	PackageDetails string   `json:"packageDetails,omitempty"`
	ETAMinutes     int      `json:"etaMinutes,omitempty"`
}

// Mission is a delivery request tracked from creation to a terminal state.
// Missions are never deleted; terminal ones stay listable as history.
type Mission struct {
	Payload
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     Status    `json:"status"`
	OperatorID string    `json:"operatorId,omitempty"`
}

// transitions is the allowed lifecycle graph. The legacy service accepted
// any status value here; that looseness is deliberately dropped, see
// DESIGN.md. Terminal states have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:  {StatusAssigned, StatusFailed},
	StatusAssigned: {StatusInFlight, StatusFailed},
	StatusInFlight: {StatusCompleted, StatusFailed},
}

// ParseStatus maps an external status string to its canonical Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusAssigned, StatusInFlight, StatusCompleted, StatusFailed:
		return Status(s), nil
	}
	if s == "confirmed" {
		return StatusAssigned, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// Terminal reports whether s allows no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// canTransition reports whether from → to is a legal lifecycle edge.
func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
