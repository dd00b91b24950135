// UDP ingestion loop, stale-connection reaper, and command dispatch.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"skylink-gateway/internal/telemetry"
)

const maxDatagramSize = 64 * 1024

// DroneStore is the persistence collaborator the gateway reports to. All
// calls are best-effort: failures are logged, never propagated.
type DroneStore interface {
	SetDroneActive(ctx context.Context, droneID string, active bool) error
	RecordTrackingPoint(ctx context.Context, frame telemetry.Frame) error
}

// Config holds the gateway's network and reaper settings.
type Config struct {
	Listen       string        // UDP listen address, e.g. ":5761"
	ReapInterval time.Duration // period of the stale sweep
	StaleAfter   time.Duration // endpoint idle time before eviction
}

// Gateway owns the UDP socket shared by telemetry ingestion and command
// dispatch. Registry and cache writes happen only here and in the reaper;
// every other component reads.
type Gateway struct {
	cfg      Config
	registry *Registry
	cache    *Cache
	bus      *Bus
	store    DroneStore // optional
	log      *slog.Logger
	now      func() time.Time

	// connMu guards conn: Run binds it on its own goroutine while
	// SendCommand and LocalAddr read it from request handlers.
	connMu sync.RWMutex
	conn   net.PacketConn
}

// NewGateway wires a gateway around the given shared state. store may be
// nil when no persistence collaborator is configured.
func NewGateway(cfg Config, registry *Registry, cache *Cache, bus *Bus, store DroneStore, log *slog.Logger) *Gateway {
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = 30 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 30 * time.Second
	}
	return &Gateway{
		cfg:      cfg,
		registry: registry,
		cache:    cache,
		bus:      bus,
		store:    store,
		log:      log,
		now:      time.Now,
	}
}

// Run binds the UDP socket and blocks consuming datagrams until ctx is
// cancelled. The reaper runs on its own ticker for the same lifetime.
func (g *Gateway) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", g.cfg.Listen)
	if err != nil {
		return fmt.Errorf("bind udp %s: %w", g.cfg.Listen, err)
	}
	g.connMu.Lock()
	g.conn = conn
	g.connMu.Unlock()
	g.log.Info("gateway listening", "addr", conn.LocalAddr().String())

	go g.reapLoop(ctx)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("udp read: %w", err)
		}
		g.handleDatagram(buf[:n], addr)
	}
}

// LocalAddr returns the bound UDP address, or nil before Run.
func (g *Gateway) LocalAddr() net.Addr {
	conn := g.socket()
	if conn == nil {
		return nil
	}
	return conn.LocalAddr()
}

// socket returns the bound packet connection, or nil before Run.
func (g *Gateway) socket() net.PacketConn {
	g.connMu.RLock()
	defer g.connMu.RUnlock()
	return g.conn
}

// handleDatagram classifies one inbound packet. Bad input is logged and
// dropped; this is an untrusted transport boundary and must never fail the
// read loop.
func (g *Gateway) handleDatagram(data []byte, addr net.Addr) {
	msg := string(data)

	if rest, ok := strings.CutPrefix(msg, "DRONE:"); ok {
		droneID := strings.TrimSpace(rest)
		if droneID == "" {
			g.log.Debug("handshake without drone id", "from", addr.String())
			return
		}
		g.registry.Register(droneID, addr)
		g.log.Info("drone connected", "drone", droneID, "addr", addr.String())
		g.reportActive(droneID, true)
		return
	}

	if rest, ok := strings.CutPrefix(msg, "HEARTBEAT:"); ok {
		// Heartbeats only refresh an existing endpoint, they never
		// register one.
		g.registry.Touch(strings.TrimSpace(rest))
		return
	}

	id, body, ok := strings.Cut(msg, ":")
	if !ok {
		g.log.Debug("dropping unclassified datagram", "from", addr.String(), "bytes", len(data))
		return
	}
	frame, err := telemetry.DecodeFrame(strings.TrimSpace(id), []byte(body), g.now())
	if err != nil {
		g.log.Debug("dropping malformed datagram", "from", addr.String(), "error", err)
		return
	}

	if _, err := g.registry.Resolve(frame.DroneID); err != nil {
		// Self-healing path for drones that skip the handshake.
		g.registry.Register(frame.DroneID, addr)
		g.log.Info("drone registered via telemetry", "drone", frame.DroneID, "addr", addr.String())
		g.reportActive(frame.DroneID, true)
	} else {
		g.registry.Touch(frame.DroneID)
	}

	g.cache.Put(frame)
	g.bus.Publish(frame)
	g.recordTracking(frame)
}

// SendCommand serializes env and fires it at the drone's registered
// endpoint over the ingestion socket. No ack, no retry.
func (g *Gateway) SendCommand(env telemetry.CommandEnvelope) error {
	addr, err := g.registry.Resolve(env.DroneID)
	if err != nil {
		return fmt.Errorf("dispatch %s to %s: %w", env.Type, env.DroneID, err)
	}
	conn := g.socket()
	if conn == nil {
		return errors.New("gateway socket not open")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	datagram := append([]byte(env.DroneID+":"), payload...)
	if _, err := conn.WriteTo(datagram, addr); err != nil {
		return fmt.Errorf("send command to %s: %w", env.DroneID, err)
	}
	g.log.Info("command sent", "drone", env.DroneID, "type", string(env.Type))
	return nil
}

func (g *Gateway) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.reapStale()
		case <-ctx.Done():
			return
		}
	}
}

// reapStale evicts silent endpoints and reports them inactive. The report
// is a courtesy signal; a failure never rolls back the eviction.
func (g *Gateway) reapStale() {
	for _, droneID := range g.registry.EvictStale(g.cfg.StaleAfter) {
		g.log.Info("drone connection stale, evicting", "drone", droneID)
		g.reportActive(droneID, false)
	}
}

func (g *Gateway) reportActive(droneID string, active bool) {
	if g.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.store.SetDroneActive(ctx, droneID, active); err != nil {
			g.log.Warn("drone activity report failed", "drone", droneID, "active", active, "error", err)
		}
	}()
}

func (g *Gateway) recordTracking(frame telemetry.Frame) {
	if g.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.store.RecordTrackingPoint(ctx, frame); err != nil {
			g.log.Warn("tracking point write failed", "drone", frame.DroneID, "error", err)
		}
	}()
}
