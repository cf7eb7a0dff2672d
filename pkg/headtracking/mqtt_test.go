package headtracking

import (
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/teslashibe/go-soundscape/pkg/space"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestMQTT_OnMessage(t *testing.T) {
	tracker := NewMQTT(DefaultConfig().MQTT, false, nil)

	tracker.onMessage(nil, &fakeMessage{topic: "inertial/pose/fused", payload: []byte(`{"roll":0,"pitch":0,"yaw":45}`)})
	tracker.onMessage(nil, &fakeMessage{topic: "inertial/pose/fused", payload: []byte(`{"roll":0,"pitch":0,"yaw":90}`)})
	tracker.onMessage(nil, &fakeMessage{topic: "inertial/pose/fused", payload: []byte(`garbage`)})

	got, ok := tracker.Poll()
	if !ok {
		t.Fatal("expected a sample")
	}
	if want := space.FromAxisAngle(space.AxisZ, math.Pi/2); !got.ApproxEqual(want, 1e-9) {
		t.Errorf("got %v, want latest valid sample %v", got.Quat(), want.Quat())
	}
	if _, ok := tracker.Poll(); ok {
		t.Error("Poll should not return the same sample twice")
	}
}

func TestMQTT_StopUnblocksStart(t *testing.T) {
	// A broker that accepts TCP connections but never answers CONNECT.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	cfg := DefaultConfig().MQTT
	cfg.Broker = "tcp://" + ln.Addr().String()
	cfg.ConnectTimeout = 10 * time.Second
	tracker := NewMQTT(cfg, false, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- tracker.Start() }()

	time.Sleep(100 * time.Millisecond)
	_ = tracker.Stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrStopped) {
			t.Errorf("Start: got %v, want ErrStopped", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not unblock Start")
	}

	select {
	case <-tracker.Done():
	default:
		t.Error("Done should be closed after Stop")
	}
}

func TestMQTT_StopDuringConnectReleasesClient(t *testing.T) {
	// A broker that accepts CONNECT only after Stop has been called.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	released := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if _, err := packets.ReadPacket(conn); err != nil {
			return
		}
		time.Sleep(300 * time.Millisecond)
		connack := packets.NewControlPacket(packets.Connack).(*packets.ConnackPacket)
		connack.ReturnCode = packets.Accepted
		if err := connack.Write(conn); err != nil {
			return
		}

		// The client must hang up: DISCONNECT or a closed connection.
		for {
			pkt, err := packets.ReadPacket(conn)
			if err != nil {
				close(released)
				return
			}
			if _, ok := pkt.(*packets.DisconnectPacket); ok {
				close(released)
				return
			}
		}
	}()

	cfg := DefaultConfig().MQTT
	cfg.Broker = "tcp://" + ln.Addr().String()
	tracker := NewMQTT(cfg, false, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- tracker.Start() }()

	time.Sleep(100 * time.Millisecond)
	_ = tracker.Stop()

	if err := <-errCh; !errors.Is(err, ErrStopped) {
		t.Fatalf("Start: got %v, want ErrStopped", err)
	}

	select {
	case <-released:
	case <-time.After(3 * time.Second):
		t.Fatal("client stayed connected after Stop")
	}
}

func TestMQTT_UnreachableBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	cfg := DefaultConfig().MQTT
	cfg.Broker = "tcp://" + addr
	cfg.ConnectTimeout = time.Second

	err = NewMQTT(cfg, false, nil).Start()
	var ue *UnknownError
	if !errors.As(err, &ue) {
		t.Errorf("Start: got %v, want UnknownError", err)
	}
}
