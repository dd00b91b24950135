package gateway

import (
	"errors"
	"net"
	"sync"
	"time"
)

// ErrDroneNotConnected is returned when a drone has no live endpoint,
// either because it never connected or because the reaper evicted it.
var ErrDroneNotConnected = errors.New("drone not connected")

// Endpoint pairs a drone's current network address with its last-seen time.
type Endpoint struct {
	DroneID  string
	Addr     net.Addr
	LastSeen time.Time
}

// Registry maps drone identity to its current UDP endpoint. Writes come
// from the ingestion loop and the reaper; everything else only reads.
// Per-drone updates are last-writer-wins.
type Registry struct {
	mu        sync.Mutex
	endpoints map[string]Endpoint
	now       func() time.Time
}

// NewRegistry returns an empty endpoint registry.
func NewRegistry() *Registry {
	return &Registry{
		endpoints: make(map[string]Endpoint),
		now:       time.Now,
	}
}

// Register creates or updates the endpoint for droneID and refreshes its
// last-seen time.
func (r *Registry) Register(droneID string, addr net.Addr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[droneID] = Endpoint{DroneID: droneID, Addr: addr, LastSeen: r.now()}
}

// Touch refreshes the last-seen time for an existing endpoint. Unknown
// drones are ignored: a heartbeat alone never registers an endpoint.
func (r *Registry) Touch(droneID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ep, ok := r.endpoints[droneID]; ok {
		ep.LastSeen = r.now()
		r.endpoints[droneID] = ep
	}
}

// Resolve returns the current address for droneID.
func (r *Registry) Resolve(droneID string) (net.Addr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.endpoints[droneID]
	if !ok {
		return nil, ErrDroneNotConnected
	}
	return ep.Addr, nil
}

// Evict removes the endpoint for droneID, if present.
func (r *Registry) Evict(droneID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.endpoints, droneID)
}

// EvictStale removes every endpoint whose last-seen time is older than
// maxAge and returns the evicted drone IDs.
func (r *Registry) EvictStale(maxAge time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxAge)
	var evicted []string
	for id, ep := range r.endpoints {
		if ep.LastSeen.Before(cutoff) {
			delete(r.endpoints, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// List returns the IDs of all currently registered drones, in no
// particular order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.endpoints))
	for id := range r.endpoints {
		ids = append(ids, id)
	}
	return ids
}
