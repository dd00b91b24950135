// YAML config loader with CUE validation integration
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Region defines an operational delivery zone.
type Region struct {
	Name      string  `yaml:"name"`
	CenterLat float64 `yaml:"center_lat"`
	CenterLon float64 `yaml:"center_lon"`
	RadiusKM  float64 `yaml:"radius_km"`
}

// Fleet defines a group of simulated drones of the same model.
type Fleet struct {
	Name       string `yaml:"name"`
	Model      string `yaml:"model"`
	Count      int    `yaml:"count"`
	HomeRegion string `yaml:"home_region"`
}

// Greptime holds the GreptimeDB connection settings.
type Greptime struct {
	Endpoint string `yaml:"endpoint"`
	Database string `yaml:"database"`
}

// GatewayConfig is the root configuration.
type GatewayConfig struct {
	UDPListen           string   `yaml:"udp_listen"`
	HTTPListen          string   `yaml:"http_listen"`
	ReapIntervalSeconds int      `yaml:"reap_interval_seconds"`
	StaleAfterSeconds   int      `yaml:"stale_after_seconds"`
	SubscriberBuffer    int      `yaml:"subscriber_buffer"`
	Greptime            Greptime `yaml:"greptimedb"`
	Zones               []Region `yaml:"zones"`
	Fleets              []Fleet  `yaml:"fleets"`
}

// ReapInterval returns the reaper tick as a duration, defaulted when unset.
func (c *GatewayConfig) ReapInterval() time.Duration {
	if c.ReapIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ReapIntervalSeconds) * time.Second
}

// StaleAfter returns the silence threshold before a drone is evicted.
func (c *GatewayConfig) StaleAfter() time.Duration {
	if c.StaleAfterSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*GatewayConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := &GatewayConfig{
		UDPListen:  ":6001",
		HTTPListen: ":8080",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
