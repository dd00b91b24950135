package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"skylink-gateway/internal/telemetry"
)

// mockDroneStore records collaborator calls for assertions.
type mockDroneStore struct {
	mu       sync.Mutex
	activity map[string]bool
	tracked  []telemetry.Frame
}

func newMockDroneStore() *mockDroneStore {
	return &mockDroneStore{activity: make(map[string]bool)}
}

func (m *mockDroneStore) SetDroneActive(_ context.Context, droneID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity[droneID] = active
	return nil
}

func (m *mockDroneStore) RecordTrackingPoint(_ context.Context, frame telemetry.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked = append(m.tracked, frame)
	return nil
}

func (m *mockDroneStore) activeState(droneID string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.activity[droneID]
	return v, ok
}

func newTestGateway(store DroneStore) *Gateway {
	return NewGateway(
		Config{Listen: "127.0.0.1:0"},
		NewRegistry(),
		NewCache(),
		NewBus(),
		store,
		slog.New(slog.DiscardHandler),
	)
}

// waitFor polls cond until it holds or the deadline passes. Store reports
// are fire-and-forget goroutines, so tests have to wait them out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHandleDatagram_Handshake(t *testing.T) {
	store := newMockDroneStore()
	g := newTestGateway(store)
	src := udpAddr(7001)

	g.handleDatagram([]byte("DRONE:falcon-1"), src)

	addr, err := g.registry.Resolve("falcon-1")
	if err != nil {
		t.Fatalf("Resolve after handshake: %v", err)
	}
	if addr.String() != src.String() {
		t.Errorf("endpoint = %s, want %s", addr, src)
	}
	waitFor(t, func() bool {
		active, ok := store.activeState("falcon-1")
		return ok && active
	})
}

func TestHandleDatagram_HeartbeatOnlyTouches(t *testing.T) {
	g := newTestGateway(nil)
	g.handleDatagram([]byte("HEARTBEAT:ghost"), udpAddr(7002))
	if _, err := g.registry.Resolve("ghost"); !errors.Is(err, ErrDroneNotConnected) {
		t.Errorf("heartbeat registered an endpoint, want none")
	}
}

func TestHandleDatagram_TelemetryAutoRegisters(t *testing.T) {
	store := newMockDroneStore()
	g := newTestGateway(store)
	src := udpAddr(7003)

	g.handleDatagram([]byte(`D1:{"latitude": 14.7, "battery": 40}`), src)

	addr, err := g.registry.Resolve("D1")
	if err != nil {
		t.Fatalf("Resolve after telemetry: %v", err)
	}
	if addr.String() != src.String() {
		t.Errorf("endpoint = %s, want packet source %s", addr, src)
	}

	frame, ok := g.cache.Get("D1")
	if !ok {
		t.Fatal("frame not cached")
	}
	if frame.Battery != 40 || frame.Latitude != 14.7 {
		t.Errorf("frame = %+v, want battery 40 lat 14.7", frame)
	}
	if frame.Longitude != 0 || frame.Speed != 0 || frame.Heading != 0 || frame.SignalQuality != 100 {
		t.Errorf("defaults not applied: %+v", frame)
	}

	waitFor(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.tracked) == 1
	})
}

func TestHandleDatagram_TelemetryPublishes(t *testing.T) {
	g := newTestGateway(nil)
	ch := make(chan telemetry.Frame, 1)
	if err := g.bus.Subscribe("sub", ch); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	g.handleDatagram([]byte(`D2:{"battery": 77}`), udpAddr(7004))

	select {
	case frame := <-ch:
		if frame.DroneID != "D2" || frame.Battery != 77 {
			t.Errorf("published frame = %+v", frame)
		}
	default:
		t.Fatal("no frame published to bus")
	}
}

func TestHandleDatagram_MalformedDropped(t *testing.T) {
	g := newTestGateway(nil)
	for _, payload := range []string{
		"garbage with no separator",
		"D1:not-json-at-all",
		`D1:{"irrelevant": true}`,
		"",
	} {
		g.handleDatagram([]byte(payload), udpAddr(7005))
	}
	if ids := g.registry.List(); len(ids) != 0 {
		t.Errorf("registry = %v, want empty after malformed input", ids)
	}
	if frames := g.cache.Latest(); len(frames) != 0 {
		t.Errorf("cache = %v, want empty after malformed input", frames)
	}
}

func TestReapStale_ReportsInactive(t *testing.T) {
	store := newMockDroneStore()
	g := newTestGateway(store)
	now := time.Unix(1700000000, 0)
	g.registry.now = func() time.Time { return now }

	g.registry.Register("d1", udpAddr(7006))
	now = now.Add(31 * time.Second)
	g.reapStale()

	if _, err := g.registry.Resolve("d1"); !errors.Is(err, ErrDroneNotConnected) {
		t.Errorf("stale endpoint survived the sweep")
	}
	waitFor(t, func() bool {
		active, ok := store.activeState("d1")
		return ok && !active
	})
}

func TestSendCommand_NotConnected(t *testing.T) {
	g := newTestGateway(nil)
	err := g.SendCommand(telemetry.CommandEnvelope{DroneID: "nobody", Type: telemetry.CommandLand})
	if !errors.Is(err, ErrDroneNotConnected) {
		t.Errorf("err = %v, want ErrDroneNotConnected", err)
	}
}

func TestSendCommand_DeliversDatagram(t *testing.T) {
	peer, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("peer socket: %v", err)
	}
	defer peer.Close()
	sock, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("gateway socket: %v", err)
	}
	defer sock.Close()

	g := newTestGateway(nil)
	g.conn = sock
	g.registry.Register("falcon-1", peer.LocalAddr())

	env := telemetry.CommandEnvelope{
		DroneID: "falcon-1",
		Type:    telemetry.CommandWaypoint,
		Payload: map[string]any{"lat": 48.2, "lon": 16.4},
	}
	if err := g.SendCommand(env); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}

	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, maxDatagramSize)
	n, _, err := peer.ReadFrom(buf)
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	msg := string(buf[:n])
	if !strings.HasPrefix(msg, "falcon-1:") {
		t.Fatalf("datagram = %q, want falcon-1: prefix", msg)
	}
	var got telemetry.CommandEnvelope
	if err := json.Unmarshal([]byte(strings.TrimPrefix(msg, "falcon-1:")), &got); err != nil {
		t.Fatalf("decode command: %v", err)
	}
	if got.Type != telemetry.CommandWaypoint || got.DroneID != "falcon-1" {
		t.Errorf("command = %+v", got)
	}
}

func TestSendCommand_ConcurrentWithRun(t *testing.T) {
	peer, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("peer socket: %v", err)
	}
	defer peer.Close()

	g := newTestGateway(nil)
	g.registry.Register("falcon-1", peer.LocalAddr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	env := telemetry.CommandEnvelope{DroneID: "falcon-1", Type: telemetry.CommandPause}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// Before the socket binds this fails cleanly; afterwards
				// it dispatches. Either way it must not race with Run.
				g.SendCommand(env)
				g.LocalAddr()
			}
		}()
	}
	wg.Wait()

	waitFor(t, func() bool { return g.LocalAddr() != nil })
	if err := g.SendCommand(env); err != nil {
		t.Fatalf("SendCommand after bind: %v", err)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
