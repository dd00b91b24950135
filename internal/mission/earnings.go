package mission

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Earnings pricing constants. The size multiplier keys off keywords in the
// package description; the weight multiplier off a "<number>kg" token.
const (
	baseRate      = 10.0
	defaultWeight = 2.0
)

var weightPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)kg`)

// EarningRecord is the auditable payout event emitted when a mission with
// an assigned operator completes.
type EarningRecord struct {
	MissionID  string    `json:"missionId"`
	OperatorID string    `json:"operatorId"`
	Amount     float64   `json:"amount"`
	ComputedAt time.Time `json:"computedAt"`
}

// EarningsWriter receives earning records. Write failures are logged by
// the store and never revert the mission's terminal status.
type EarningsWriter interface {
	WriteEarning(EarningRecord) error
}

// ComputeEarnings prices a completed delivery from its package description:
// base 10.0, doubled for "large" packages and flat for "small" ones, scaled
// by max(1, weight/2) with the weight parsed from a "<n>kg" token
// (default 2kg).
func ComputeEarnings(packageDetails string) float64 {
	size := 1.5
	if strings.Contains(packageDetails, "large") {
		size = 2.0
	} else if strings.Contains(packageDetails, "small") {
		size = 1.0
	}

	weight := defaultWeight
	if m := weightPattern.FindStringSubmatch(packageDetails); m != nil {
		if w, err := strconv.ParseFloat(m[1], 64); err == nil {
			weight = w
		}
	}
	weightMultiplier := weight / 2.0
	if weightMultiplier < 1.0 {
		weightMultiplier = 1.0
	}

	return baseRate * size * weightMultiplier
}
