// HTTP boundary for mission management, telemetry reads, and command
// dispatch. All state lives in the injected collaborators; the server
// itself is stateless and safe for concurrent requests.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"skylink-gateway/internal/gateway"
	"skylink-gateway/internal/mission"
	"skylink-gateway/internal/store"
	"skylink-gateway/internal/telemetry"
)

// CommandSender dispatches a command envelope to a connected drone.
type CommandSender interface {
	SendCommand(env telemetry.CommandEnvelope) error
}

// Server wires the HTTP routes to the gateway and mission collaborators.
type Server struct {
	missions *mission.Store
	registry *gateway.Registry
	cache    *gateway.Cache
	bus      *gateway.Bus
	sender   CommandSender
	drones   *store.Drones
	log      *slog.Logger

	// keepAlive is the SSE comment interval; overridable in tests.
	keepAlive time.Duration
	// streamBuffer is the per-stream subscriber channel capacity.
	streamBuffer int
}

// NewServer creates a Server. drones may be nil when no persistence layer
// is configured; the drone read routes then answer 404/empty.
func NewServer(missions *mission.Store, registry *gateway.Registry, cache *gateway.Cache, bus *gateway.Bus, sender CommandSender, drones *store.Drones, log *slog.Logger) *Server {
	return &Server{
		missions:     missions,
		registry:     registry,
		cache:        cache,
		bus:          bus,
		sender:       sender,
		drones:       drones,
		log:          log,
		keepAlive:    30 * time.Second,
		streamBuffer: 64,
	}
}

// SetStreamBuffer overrides the per-connection SSE channel capacity.
func (s *Server) SetStreamBuffer(n int) {
	if n > 0 {
		s.streamBuffer = n
	}
}

// Handler returns the route table as a mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/missions", s.handleListMissions)
	mux.HandleFunc("GET /api/missions/active", s.handleActiveMissions)
	mux.HandleFunc("POST /api/missions", s.handleCreateMission)
	mux.HandleFunc("GET /api/missions/{id}", s.handleGetMission)
	mux.HandleFunc("POST /api/missions/{id}/assign", s.handleAssignMission)
	mux.HandleFunc("POST /api/missions/{id}/status", s.handleMissionStatus)
	mux.HandleFunc("GET /api/telemetry/latest", s.handleTelemetryLatest)
	mux.HandleFunc("GET /api/telemetry/stream", s.handleTelemetryStream)
	mux.HandleFunc("POST /api/commands", s.handleCommand)
	mux.HandleFunc("GET /api/drones", s.handleListDrones)
	mux.HandleFunc("GET /api/drones/connected", s.handleConnectedDrones)
	mux.HandleFunc("GET /api/drones/{id}", s.handleGetDrone)
	return mux
}

// Start serves the routes on addr until the listener fails.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"drones": s.cache.Latest(),
		"bus":    s.bus.Stats(),
	})
}

func (s *Server) handleListMissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.missions.ListAll())
}

func (s *Server) handleActiveMissions(w http.ResponseWriter, r *http.Request) {
	missions := s.missions.ListActive()
	if missions == nil {
		missions = []mission.Mission{}
	}
	writeJSON(w, http.StatusOK, missions)
}

func (s *Server) handleCreateMission(w http.ResponseWriter, r *http.Request) {
	var payload mission.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	m, err := s.missions.Create(payload)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.log.Info("mission created", "mission", m.ID, "priority", m.Priority)
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGetMission(w http.ResponseWriter, r *http.Request) {
	m, err := s.missions.Get(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleAssignMission(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OperatorID string `json:"operatorId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OperatorID == "" {
		writeError(w, http.StatusBadRequest, "operatorId is required")
		return
	}
	m, err := s.missions.Assign(r.PathValue("id"), body.OperatorID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.log.Info("mission assigned", "mission", m.ID, "operator", m.OperatorID)
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMissionStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	status, err := mission.ParseStatus(body.Status)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	m, err := s.missions.UpdateStatus(r.PathValue("id"), status)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.log.Info("mission status updated", "mission", m.ID, "status", m.Status)
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleTelemetryLatest(w http.ResponseWriter, r *http.Request) {
	frames := s.cache.Latest()
	if frames == nil {
		frames = []telemetry.Frame{}
	}
	writeJSON(w, http.StatusOK, frames)
}

// commandRequest is the dispatch body. missionId is optional; when given,
// commands against finished missions are refused before touching the wire.
type commandRequest struct {
	DroneID   string                `json:"droneId"`
	Type      telemetry.CommandType `json:"type"`
	Payload   map[string]any        `json:"payload,omitempty"`
	MissionID string                `json:"missionId,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.DroneID == "" {
		writeError(w, http.StatusBadRequest, "droneId is required")
		return
	}
	if !telemetry.ValidCommandType(req.Type) {
		writeError(w, http.StatusBadRequest, "unknown command type")
		return
	}
	if req.MissionID != "" {
		m, err := s.missions.Get(req.MissionID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		if m.Status.Terminal() {
			writeError(w, http.StatusConflict, "mission is already "+string(m.Status))
			return
		}
	}
	env := telemetry.CommandEnvelope{DroneID: req.DroneID, Type: req.Type, Payload: req.Payload}
	if err := s.sender.SendCommand(env); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.log.Info("command dispatched", "drone", req.DroneID, "type", req.Type)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

func (s *Server) handleListDrones(w http.ResponseWriter, r *http.Request) {
	if s.drones == nil {
		writeJSON(w, http.StatusOK, []store.DroneRecord{})
		return
	}
	records := s.drones.ListDrones()
	if records == nil {
		records = []store.DroneRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleConnectedDrones serves the registry's live endpoint view: drones
// with a current UDP endpoint, as opposed to the persisted activity records
// under /api/drones.
func (s *Server) handleConnectedDrones(w http.ResponseWriter, r *http.Request) {
	ids := s.registry.List()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleGetDrone(w http.ResponseWriter, r *http.Request) {
	if s.drones == nil {
		writeError(w, http.StatusNotFound, "drone not found")
		return
	}
	rec, err := s.drones.GetDrone(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// writeDomainError maps collaborator sentinel errors to status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mission.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, mission.ErrNotFound), errors.Is(err, store.ErrUnknownDrone):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, mission.ErrInvalidTransition), errors.Is(err, gateway.ErrDroneNotConnected):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("request failed", "error", err)
		writeError(w, http.StatusBadGateway, "upstream failure")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
