// Simulator orchestrating a delivery fleet that speaks the gateway's UDP
// protocol: a DRONE: handshake per drone, JSON telemetry every tick, and
// periodic HEARTBEAT: datagrams in between.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net"
	"sync"
	"time"

	"skylink-gateway/internal/config"
	"skylink-gateway/internal/logging"
	"skylink-gateway/internal/telemetry"
)

// degreesPerKM approximates latitude degrees for one kilometer.
const degreesPerKM = 1.0 / 111.0

// heartbeatEvery is the tick count between keepalive datagrams.
const heartbeatEvery = 5

// modelSpeeds maps drone models to cruise speed in km/h.
var modelSpeeds = map[string]float64{
	"cargo-quad": 60,
	"long-range": 110,
	"light-wing": 85,
}

// Drone holds the runtime state of one simulated drone.
type Drone struct {
	ID       string
	Model    string
	Lat      float64
	Lon      float64
	Altitude float64
	Battery  float64
	Speed    float64
	Heading  float64
	Status   string
}

// DroneFleet holds runtime drones for one fleet.
type DroneFleet struct {
	Name   string
	Model  string
	Drones []*Drone
}

// Simulator drives the fleet and pushes datagrams at the gateway.
type Simulator struct {
	fleets       []DroneFleet
	zones        map[string]config.Region
	conn         net.Conn
	tickInterval time.Duration
	rand         *rand.Rand
	ticks        int
	mu           sync.Mutex
}

// NewSimulator initializes drones from fleet config and dials the gateway.
func NewSimulator(cfg *config.GatewayConfig, target string, tickInterval time.Duration) (*Simulator, error) {
	conn, err := net.Dial("udp", target)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}
	s := &Simulator{
		zones:        make(map[string]config.Region),
		conn:         conn,
		tickInterval: tickInterval,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, z := range cfg.Zones {
		s.zones[z.Name] = z
	}
	for _, f := range cfg.Fleets {
		s.fleets = append(s.fleets, s.buildFleet(f))
	}
	return s, nil
}

func (s *Simulator) buildFleet(f config.Fleet) DroneFleet {
	fleet := DroneFleet{Name: f.Name, Model: f.Model}
	zone, ok := s.zones[f.HomeRegion]
	if !ok && len(s.zones) > 0 {
		for _, z := range s.zones {
			zone = z
			break
		}
	}
	speed, ok := modelSpeeds[f.Model]
	if !ok {
		speed = 60
	}
	for i := 0; i < f.Count; i++ {
		fleet.Drones = append(fleet.Drones, &Drone{
			ID:       fmt.Sprintf("%s-%d", f.Name, i+1),
			Model:    f.Model,
			Lat:      zone.CenterLat + (s.rand.Float64()*2-1)*zone.RadiusKM*degreesPerKM,
			Lon:      zone.CenterLon + (s.rand.Float64()*2-1)*zone.RadiusKM*degreesPerKM,
			Altitude: 80 + s.rand.Float64()*40,
			Battery:  100,
			Speed:    speed,
			Heading:  s.rand.Float64() * 360,
			Status:   "in-flight",
		})
	}
	return fleet
}

// Drones returns all runtime drones across fleets.
func (s *Simulator) Drones() []*Drone {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Drone
	for _, f := range s.fleets {
		out = append(out, f.Drones...)
	}
	return out
}

// Run announces the fleet and then ticks until the context is done.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting fleet simulator", "tick_interval", s.tickInterval, "drones", len(s.Drones()))
	s.handshake()
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-ctx.Done():
			log.Info("stopping fleet simulator")
			return
		}
	}
}

// handshake registers every drone with the gateway.
func (s *Simulator) handshake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.fleets {
		for _, d := range f.Drones {
			fmt.Fprintf(s.conn, "DRONE:%s", d.ID)
		}
	}
}

// tick advances every drone and emits one telemetry datagram per drone,
// with heartbeats interleaved every few ticks.
func (s *Simulator) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++
	for _, f := range s.fleets {
		for _, d := range f.Drones {
			s.advance(d)
			if s.ticks%heartbeatEvery == 0 {
				fmt.Fprintf(s.conn, "HEARTBEAT:%s", d.ID)
				continue
			}
			frame := telemetry.Frame{
				DroneID:       d.ID,
				Battery:       d.Battery,
				Latitude:      d.Lat,
				Longitude:     d.Lon,
				Altitude:      d.Altitude,
				Speed:         d.Speed,
				Heading:       d.Heading,
				SignalQuality: 70 + s.rand.Float64()*30,
				Status:        d.Status,
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			fmt.Fprintf(s.conn, "%s:%s", d.ID, payload)
		}
	}
}

// advance moves the drone one tick along a drifting heading and drains
// its battery.
func (s *Simulator) advance(d *Drone) {
	d.Heading = math.Mod(d.Heading+(s.rand.Float64()*30-15)+360, 360)
	distKM := d.Speed * s.tickInterval.Hours()
	rad := d.Heading * math.Pi / 180
	d.Lat += math.Cos(rad) * distKM * degreesPerKM
	d.Lon += math.Sin(rad) * distKM * degreesPerKM
	d.Battery -= 0.05 + s.rand.Float64()*0.1
	if d.Battery < 0 {
		d.Battery = 0
	}
	switch {
	case d.Battery == 0:
		d.Status = "grounded"
		d.Speed = 0
	case d.Battery < 20:
		d.Status = "returning"
	}
}

// Close releases the UDP socket.
func (s *Simulator) Close() error {
	return s.conn.Close()
}
