package config

import "time"

// ServerConfig contains the HTTP listener configuration.
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// FeedConfig contains the vehicle-monitoring feed configuration.
// Kind selects the payload decoder: "siri-vm" (XML datafeed, default) or
// "gtfsrt" (VehiclePositions protobuf).
type FeedConfig struct {
	Kind        string   `yaml:"kind" validate:"omitempty,oneof=siri-vm gtfsrt"`
	URL         string   `yaml:"url" validate:"omitempty,url"`
	APIKey      string   `yaml:"apiKey"`
	TimeoutMS   int      `yaml:"timeoutMS" validate:"gte=0"`
	CacheTTLSec int      `yaml:"cacheTTLSec" validate:"gte=0"`
	LineFilter  []string `yaml:"lineFilter"`
}

// TrafficConfig contains the traffic-flow provider configuration.
type TrafficConfig struct {
	URL         string `yaml:"url" validate:"omitempty,url"`
	APIKey      string `yaml:"apiKey"`
	TimeoutMS   int    `yaml:"timeoutMS" validate:"gte=0"`
	CacheTTLSec int    `yaml:"cacheTTLSec" validate:"gte=0"`
}

// ModelConfig points at the out-of-process prediction model scorer.
// An empty URL means no model; fusion uses the deterministic fallback.
type ModelConfig struct {
	URL       string `yaml:"url" validate:"omitempty,url"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// StoreConfig contains the prediction history database configuration.
// An empty DSN disables persistence; fusion results are still computed.
type StoreConfig struct {
	DSN       string `yaml:"dsn"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// SensorConfig contains the crowd-sensor NATS subscription configuration.
// An empty URL disables the subscriber; sensor updates then arrive only
// over POST /api/sensor-update.
type SensorConfig struct {
	NATSURL string `yaml:"natsURL"`
	Subject string `yaml:"subject"`
}

// AssociationConfig tunes the vehicle-to-stop association heuristics.
type AssociationConfig struct {
	ProximityKM      float64 `yaml:"proximityKM" validate:"gte=0"`
	MinSpeedKMH      float64 `yaml:"minSpeedKMH" validate:"gte=0"`
	OnRouteKM        float64 `yaml:"onRouteKM" validate:"gte=0"`
	RouteMatchPrefix bool    `yaml:"routeMatchPrefix"`
}

// TrackingConfig tunes the per-vehicle trail history.
type TrackingConfig struct {
	TrailCap int `yaml:"trailCap" validate:"gte=0"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server       ServerConfig      `yaml:"server" validate:"required"`
	Feed         FeedConfig        `yaml:"feed"`
	Traffic      TrafficConfig     `yaml:"traffic"`
	Model        ModelConfig       `yaml:"model"`
	Store        StoreConfig       `yaml:"store"`
	Sensor       SensorConfig      `yaml:"sensor"`
	Association  AssociationConfig `yaml:"association"`
	Tracking     TrackingConfig    `yaml:"tracking"`
	RegistryPath string            `yaml:"registryPath"`
}

// Timeout returns the feed fetch timeout as a duration.
func (c FeedConfig) Timeout() time.Duration { return msOrDefault(c.TimeoutMS, 10*time.Second) }

// CacheTTL returns the vehicle cache freshness window.
func (c FeedConfig) CacheTTL() time.Duration { return secOrDefault(c.CacheTTLSec, 30*time.Second) }

// Timeout returns the traffic lookup timeout as a duration.
func (c TrafficConfig) Timeout() time.Duration { return msOrDefault(c.TimeoutMS, 5*time.Second) }

// CacheTTL returns the traffic lookup cache window.
func (c TrafficConfig) CacheTTL() time.Duration { return secOrDefault(c.CacheTTLSec, 60*time.Second) }

// Timeout returns the model scoring timeout as a duration.
func (c ModelConfig) Timeout() time.Duration { return msOrDefault(c.TimeoutMS, 3*time.Second) }

// Timeout returns the persistence call timeout as a duration.
func (c StoreConfig) Timeout() time.Duration { return msOrDefault(c.TimeoutMS, 5*time.Second) }

func msOrDefault(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func secOrDefault(sec int, def time.Duration) time.Duration {
	if sec <= 0 {
		return def
	}
	return time.Duration(sec) * time.Second
}
