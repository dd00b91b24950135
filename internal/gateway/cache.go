package gateway

import (
	"sync"

	"skylink-gateway/internal/telemetry"
)

// Cache holds the most recent telemetry frame per drone. Each new frame
// supersedes the previous one; cache entries are never mutated in place.
type Cache struct {
	mu     sync.RWMutex
	frames map[string]telemetry.Frame
}

// NewCache returns an empty telemetry cache.
func NewCache() *Cache {
	return &Cache{frames: make(map[string]telemetry.Frame)}
}

// Put stores frame as the latest state for its drone.
func (c *Cache) Put(frame telemetry.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames[frame.DroneID] = frame
}

// Get returns the latest frame for droneID.
func (c *Cache) Get(droneID string) (telemetry.Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	frame, ok := c.frames[droneID]
	return frame, ok
}

// Latest returns one frame per known drone, in no particular order.
func (c *Cache) Latest() []telemetry.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	frames := make([]telemetry.Frame, 0, len(c.frames))
	for _, f := range c.frames {
		frames = append(frames, f)
	}
	return frames
}
