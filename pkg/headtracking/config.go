package headtracking

import (
	"fmt"
	"time"
)

// Backend represents the head tracker backend type.
type Backend string

const (
	// BackendAuto selects the first configured feed, MQTT before WebSocket.
	BackendAuto Backend = "auto"
	// BackendMQTT subscribes to an orientation topic on an MQTT broker.
	BackendMQTT Backend = "mqtt"
	// BackendWebSocket reads orientation samples from a WebSocket feed.
	BackendWebSocket Backend = "websocket"
	// BackendMock generates synthetic head motion.
	BackendMock Backend = "mock"
	// BackendNone disables head tracking.
	BackendNone Backend = "none"
)

// Config holds head tracker configuration.
type Config struct {
	// Backend specifies which tracker to use.
	// Default: "auto"
	Backend Backend `yaml:"backend" json:"backend"`

	// RightHanded converts samples from a right-handed device frame
	// (y and z swapped) into the scene frame.
	RightHanded bool `yaml:"right_handed" json:"right_handed"`

	MQTT      MQTTConfig      `yaml:"mqtt" json:"mqtt"`
	WebSocket WebSocketConfig `yaml:"websocket" json:"websocket"`
}

// MQTTConfig configures the MQTT backend.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883".
	Broker   string `yaml:"broker" json:"broker"`
	Topic    string `yaml:"topic" json:"topic"`
	ClientID string `yaml:"client_id" json:"client_id"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	QoS      byte   `yaml:"qos" json:"qos"`

	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
}

// WebSocketConfig configures the WebSocket backend.
type WebSocketConfig struct {
	// URL is the feed endpoint, e.g. "ws://localhost:8080/ws/pose".
	URL string `yaml:"url" json:"url"`

	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendAuto,
		MQTT: MQTTConfig{
			Topic:          "inertial/pose/fused",
			ClientID:       "soundscape-head-tracker",
			ConnectTimeout: 5 * time.Second,
		},
		WebSocket: WebSocketConfig{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendMock, BackendNone:
	case BackendMQTT:
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required for the mqtt backend")
		}
	case BackendWebSocket:
		if c.WebSocket.URL == "" {
			return fmt.Errorf("websocket.url is required for the websocket backend")
		}
	default:
		return fmt.Errorf("unsupported backend: %q", c.Backend)
	}

	if c.MQTT.Broker != "" {
		if c.MQTT.Topic == "" {
			return fmt.Errorf("mqtt.topic must not be empty")
		}
		if c.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
		}
		if c.MQTT.ConnectTimeout <= 0 {
			return fmt.Errorf("mqtt.connect_timeout must be positive, got %v", c.MQTT.ConnectTimeout)
		}
	}
	return nil
}

// Resolve returns the backend New would create for this configuration.
func (c *Config) Resolve() Backend {
	if c.Backend != BackendAuto {
		return c.Backend
	}
	switch {
	case c.MQTT.Broker != "":
		return BackendMQTT
	case c.WebSocket.URL != "":
		return BackendWebSocket
	default:
		return BackendNone
	}
}
