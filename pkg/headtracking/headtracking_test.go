package headtracking

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-soundscape/pkg/space"
)

const tolerance = 1e-9

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not available", ErrNotAvailable, "not available"},
		{"wrapped permission", WrapError("mqtt", ErrPermissionDenied), "permission denied"},
		{"stopped", WrapError("mock", ErrStopped), "stopped"},
		{"unknown", WrapError("websocket", &UnknownError{Description: "sensor on fire"}), "unknown"},
		{"foreign", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestTrackerError(t *testing.T) {
	err := WrapError("mqtt", &UnknownError{Description: "broker exploded"})

	var te *TrackerError
	if !errors.As(err, &te) || te.Tracker != "mqtt" {
		t.Fatalf("expected TrackerError for mqtt, got %v", err)
	}
	var ue *UnknownError
	if !errors.As(err, &ue) || ue.Description != "broker exploded" {
		t.Errorf("expected UnknownError to unwrap, got %v", err)
	}
	if err.Error() != "headtracking [mqtt]: headtracking: broker exploded" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if WrapError("mqtt", nil) != nil {
		t.Error("WrapError(nil) should be nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"mqtt without broker", func(c *Config) { c.Backend = BackendMQTT }, true},
		{"mqtt", func(c *Config) { c.Backend = BackendMQTT; c.MQTT.Broker = "tcp://localhost:1883" }, false},
		{"mqtt bad qos", func(c *Config) { c.MQTT.Broker = "tcp://x:1883"; c.MQTT.QoS = 3 }, true},
		{"mqtt empty topic", func(c *Config) { c.MQTT.Broker = "tcp://x:1883"; c.MQTT.Topic = "" }, true},
		{"websocket without url", func(c *Config) { c.Backend = BackendWebSocket }, true},
		{"unknown backend", func(c *Config) { c.Backend = "coremotion" }, true},
		{"none", func(c *Config) { c.Backend = BackendNone }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Resolve(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Resolve(); got != BackendNone {
		t.Errorf("auto without feeds: got %s, want none", got)
	}

	cfg.WebSocket.URL = "ws://localhost:9000/pose"
	if got := cfg.Resolve(); got != BackendWebSocket {
		t.Errorf("auto with websocket: got %s", got)
	}

	cfg.MQTT.Broker = "tcp://localhost:1883"
	if got := cfg.Resolve(); got != BackendMQTT {
		t.Errorf("auto with both feeds should prefer mqtt, got %s", got)
	}

	cfg.Backend = BackendMock
	if got := cfg.Resolve(); got != BackendMock {
		t.Errorf("explicit backend: got %s", got)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(DefaultConfig(), nil); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("auto without feeds: got %v, want ErrNotAvailable", err)
	}

	cfg := DefaultConfig()
	cfg.Backend = BackendMock
	tracker, err := New(cfg, nil)
	if err != nil || tracker.Name() != "mock" {
		t.Errorf("mock: got %v, %v", tracker, err)
	}

	cfg.Backend = BackendMQTT
	cfg.MQTT.Broker = "tcp://localhost:1883"
	if tracker, err = New(cfg, nil); err != nil || tracker.Name() != "mqtt" {
		t.Errorf("mqtt: got %v, %v", tracker, err)
	}

	cfg.Backend = BackendWebSocket
	cfg.WebSocket.URL = "ws://localhost:1/pose"
	if tracker, err = New(cfg, nil); err != nil || tracker.Name() != "websocket" {
		t.Errorf("websocket: got %v, %v", tracker, err)
	}

	cfg.Backend = "coremotion"
	if _, err := New(cfg, nil); err == nil {
		t.Error("expected an error for an invalid config")
	}
}

func TestDecodeSample(t *testing.T) {
	quarterZ := space.FromAxisAngle(space.AxisZ, math.Pi/2)

	tests := []struct {
		name    string
		payload string
		want    space.Orientation
		wantErr bool
	}{
		{"quaternion", `{"w":0.7071067811865476,"x":0,"y":0,"z":0.7071067811865476}`, quarterZ, false},
		{"unnormalized quaternion", `{"w":2,"x":0,"y":0,"z":2}`, quarterZ, false},
		{"euler yaw degrees", `{"roll":0,"pitch":0,"yaw":90}`, quarterZ, false},
		{"partial euler", `{"yaw":90}`, quarterZ, false},
		{"pose with extra fields", `{"roll":0,"pitch":0,"yaw":90,"ts":123}`, quarterZ, false},
		{"partial quaternion falls back to error", `{"w":1,"x":0}`, space.Orientation{}, true},
		{"empty object", `{}`, space.Orientation{}, true},
		{"not json", `yaw=90`, space.Orientation{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSample([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeSample() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.ApproxEqual(tt.want, 1e-9) {
				t.Errorf("DecodeSample() = %v, want %v", got.Quat(), tt.want.Quat())
			}
		})
	}

	if _, err := DecodeSample([]byte(`{}`)); !errors.Is(err, ErrInvalidSample) {
		t.Errorf("empty sample: got %v, want ErrInvalidSample", err)
	}
}

func TestDecoder_RightHanded(t *testing.T) {
	d := decoder{rightHanded: true}

	got, err := d.decode([]byte(`{"w":0.7071067811865476,"x":0,"y":0,"z":0.7071067811865476}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	want := space.FromAxisAngle(space.AxisY, math.Pi/2)
	if !got.ApproxEqual(want, tolerance) {
		t.Errorf("right-handed z turn should map to a y turn, got %v", got.Quat())
	}
}

func TestQuaternionSample_RoundTrip(t *testing.T) {
	o := space.FromEuler(0.1, -0.4, 2.0)
	got, err := QuaternionSample(o).Orientation()
	if err != nil {
		t.Fatalf("Orientation failed: %v", err)
	}
	if !got.ApproxEqual(o, tolerance) {
		t.Errorf("got %v, want %v", got.Quat(), o.Quat())
	}
}
