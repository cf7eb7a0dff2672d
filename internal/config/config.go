// Package config loads configuration for the soundscape binaries.
//
// Configuration comes from an optional YAML file, then environment
// overrides:
//
//	SOUNDSCAPE_LOG_LEVEL      log level (debug, info, warn, error)
//	SOUNDSCAPE_PIPELINE       local or webrtc
//	SOUNDSCAPE_TRACKER        head tracker backend (auto, mqtt, websocket, mock, none)
//	SOUNDSCAPE_MQTT_BROKER    MQTT broker URL for head orientation
//	SOUNDSCAPE_HEAD_FEED_URL  WebSocket URL for head orientation
//	SOUNDSCAPE_POLL_INTERVAL  head tracker sampling period
//	SOUNDSCAPE_WEB_PORT       dashboard port, 0 disables it
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-soundscape/pkg/headtracking"
	"github.com/teslashibe/go-soundscape/pkg/session"
	"github.com/teslashibe/go-soundscape/pkg/space"
	"github.com/teslashibe/go-soundscape/pkg/spatial"
	"github.com/teslashibe/go-soundscape/pkg/stream"
)

// Pipeline kinds.
const (
	PipelineLocal  = "local"
	PipelineWebRTC = "webrtc"
)

// Config is the full soundscape configuration.
type Config struct {
	Log          LogConfig               `yaml:"log" json:"log"`
	Pipeline     string                  `yaml:"pipeline" json:"pipeline"`
	Scene        []spatial.SpatialObject `yaml:"scene" json:"scene"`
	Listener     ListenerConfig          `yaml:"listener" json:"listener"`
	HeadTracking headtracking.Config     `yaml:"head_tracking" json:"head_tracking"`
	Session      SessionConfig           `yaml:"session" json:"session"`
	Web          WebConfig               `yaml:"web" json:"web"`
	WebRTC       stream.ReceiverConfig   `yaml:"webrtc" json:"webrtc"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// ListenerConfig is the initial listener pose. Angles are in degrees.
type ListenerConfig struct {
	Location [3]float64 `yaml:"location" json:"location"`
	Roll     float64    `yaml:"roll" json:"roll"`
	Pitch    float64    `yaml:"pitch" json:"pitch"`
	Yaw      float64    `yaml:"yaw" json:"yaw"`
}

// SessionConfig configures the head tracking session.
type SessionConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// WebConfig configures the dashboard server. Port 0 disables it.
type WebConfig struct {
	Port int `yaml:"port" json:"port"`
}

// Default returns the built-in configuration: one quiet source ahead and
// to the left of a listener at the origin.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info"},
		Pipeline: PipelineLocal,
		Scene: []spatial.SpatialObject{
			{X: -5, Y: 0, Z: 1, DistanceGain: 0.2},
		},
		HeadTracking: headtracking.DefaultConfig(),
		Session:      SessionConfig{PollInterval: session.DefaultPollInterval},
		Web:          WebConfig{Port: 8181},
	}
}

// Load reads path (if non-empty) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile reads a YAML configuration on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Pipeline {
	case PipelineLocal, PipelineWebRTC:
	default:
		return fmt.Errorf("invalid pipeline: %q (valid: local, webrtc)", c.Pipeline)
	}

	validLevels := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}

	if c.Session.PollInterval <= 0 {
		return fmt.Errorf("session.poll_interval must be positive, got %v", c.Session.PollInterval)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port out of range: %d", c.Web.Port)
	}
	for i, obj := range c.Scene {
		if obj.DistanceGain < 0 {
			return fmt.Errorf("scene[%d]: distance-gain must not be negative, got %v", i, obj.DistanceGain)
		}
	}

	if err := c.HeadTracking.Validate(); err != nil {
		return fmt.Errorf("head_tracking: %w", err)
	}
	return nil
}

// SceneModel returns the configured absolute scene.
func (c *Config) SceneModel() spatial.Scene {
	scene, _ := spatial.SceneFromObjects(c.Scene)
	return scene
}

// ListenerModel returns the configured initial listener.
func (c *Config) ListenerModel() spatial.Listener {
	l := c.Listener
	return spatial.NewListenerAt(
		space.Point3{l.Location[0], l.Location[1], l.Location[2]},
		space.FromEuler(space.Radians(l.Roll), space.Radians(l.Pitch), space.Radians(l.Yaw)),
	)
}

func applyEnvOverrides(cfg *Config) {
	cfg.Log.Level = Env("SOUNDSCAPE_LOG_LEVEL", cfg.Log.Level)
	cfg.Pipeline = Env("SOUNDSCAPE_PIPELINE", cfg.Pipeline)

	ht := &cfg.HeadTracking
	ht.Backend = headtracking.Backend(Env("SOUNDSCAPE_TRACKER", string(ht.Backend)))
	ht.MQTT.Broker = Env("SOUNDSCAPE_MQTT_BROKER", ht.MQTT.Broker)
	ht.WebSocket.URL = Env("SOUNDSCAPE_HEAD_FEED_URL", ht.WebSocket.URL)

	cfg.Session.PollInterval = EnvDuration("SOUNDSCAPE_POLL_INTERVAL", cfg.Session.PollInterval)
	cfg.Web.Port = EnvInt("SOUNDSCAPE_WEB_PORT", cfg.Web.Port)
}
