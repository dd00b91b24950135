package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"skylink-gateway/internal/telemetry"
)

// handleTelemetryStream pushes live frames to the client as server-sent
// events. Each connection gets its own bus subscription, removed when the
// client goes away. Keepalive comments hold the connection open through
// idle stretches and proxies.
func (s *Server) handleTelemetryStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	id := uuid.New().String()
	frames := make(chan telemetry.Frame, s.streamBuffer)
	if err := s.bus.Subscribe(id, frames); err != nil {
		s.writeDomainError(w, err)
		return
	}
	defer s.bus.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Replay the cache so the client starts with a full fleet picture.
	for _, frame := range s.cache.Latest() {
		writeEvent(w, frame)
	}
	flusher.Flush()

	s.log.Info("telemetry stream opened", "subscriber", id, "remote", r.RemoteAddr)

	keepAlive := time.NewTicker(s.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.log.Info("telemetry stream closed", "subscriber", id)
			return
		case frame := <-frames:
			writeEvent(w, frame)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, frame telemetry.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: telemetry\ndata: %s\n\n", data)
}
