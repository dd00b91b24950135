package mission

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns all missions for the process lifetime. State is injected into
// whoever needs it instead of living in a package-level singleton, so
// stores can be constructed per test and per instance.
type Store struct {
	mu       sync.Mutex
	missions map[string]*Mission
	earnings EarningsWriter // optional
	log      *slog.Logger
	now      func() time.Time
}

// NewStore returns an empty mission store. earnings may be nil when no
// payout sink is configured.
func NewStore(earnings EarningsWriter, log *slog.Logger) *Store {
	return &Store{
		missions: make(map[string]*Mission),
		earnings: earnings,
		log:      log,
		now:      time.Now,
	}
}

// Create validates payload and stores a fresh pending mission.
func (s *Store) Create(payload Payload) (Mission, error) {
	if payload.Pickup == "" || payload.Dropoff == "" {
		return Mission{}, fmt.Errorf("%w: pickup and dropoff are required", ErrValidation)
	}
	if payload.Priority == "" {
		payload.Priority = PriorityStandard
	}

	m := &Mission{
		Payload:   payload,
		ID:        uuid.New().String(),
		CreatedAt: s.now().UTC(),
		Status:    StatusPending,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions[m.ID] = m
	return *m, nil
}

// Assign sets the operator and moves the mission into assigned. Matching
// the reference behavior, re-assignment of an already assigned or in-flight
// mission is allowed and overwrites the operator; only terminal missions
// reject it.
func (s *Store) Assign(missionID, operatorID string) (Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[missionID]
	if !ok {
		return Mission{}, fmt.Errorf("%w: %s", ErrNotFound, missionID)
	}
	if m.Status.Terminal() {
		return Mission{}, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, missionID, m.Status)
	}
	m.OperatorID = operatorID
	m.Status = StatusAssigned
	return *m, nil
}

// UpdateStatus moves the mission along the lifecycle graph. Illegal edges
// fail with ErrInvalidTransition. Entering completed with an operator
// assigned computes the payout and emits it to the earnings sink; a sink
// failure is logged and the mission stays completed.
func (s *Store) UpdateStatus(missionID string, status Status) (Mission, error) {
	s.mu.Lock()
	m, ok := s.missions[missionID]
	if !ok {
		s.mu.Unlock()
		return Mission{}, fmt.Errorf("%w: %s", ErrNotFound, missionID)
	}
	if !canTransition(m.Status, status) {
		s.mu.Unlock()
		return Mission{}, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, m.Status, status)
	}
	m.Status = status
	snapshot := *m
	s.mu.Unlock()

	// The payout write goes to a remote sink; emit it outside the lock so
	// a slow sink cannot stall other mission operations.
	if status == StatusCompleted && snapshot.OperatorID != "" {
		s.emitEarnings(snapshot)
	}
	return snapshot, nil
}

// Get returns the mission with the given id.
func (s *Store) Get(missionID string) (Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[missionID]
	if !ok {
		return Mission{}, fmt.Errorf("%w: %s", ErrNotFound, missionID)
	}
	return *m, nil
}

// ListAll returns every mission ever created, terminal ones included.
func (s *Store) ListAll() []Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Mission, 0, len(s.missions))
	for _, m := range s.missions {
		out = append(out, *m)
	}
	return out
}

// ListActive returns missions still in flight or waiting for one.
func (s *Store) ListActive() []Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Mission
	for _, m := range s.missions {
		switch m.Status {
		case StatusPending, StatusAssigned, StatusInFlight:
			out = append(out, *m)
		}
	}
	return out
}

func (s *Store) emitEarnings(m Mission) {
	record := EarningRecord{
		MissionID:  m.ID,
		OperatorID: m.OperatorID,
		Amount:     ComputeEarnings(m.PackageDetails),
		ComputedAt: s.now().UTC(),
	}
	s.log.Info("mission earnings computed",
		"mission", m.ID, "operator", m.OperatorID, "amount", record.Amount)
	if s.earnings == nil {
		return
	}
	if err := s.earnings.WriteEarning(record); err != nil {
		s.log.Warn("earnings write failed", "mission", m.ID, "error", err)
	}
}
