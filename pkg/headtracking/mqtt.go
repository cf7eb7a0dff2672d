package headtracking

import (
	"errors"
	"log/slog"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/teslashibe/go-soundscape/pkg/space"
)

// MQTT is a head tracker fed by orientation samples published on an MQTT
// topic.
type MQTT struct {
	cfg     MQTTConfig
	decoder decoder
	logger  *slog.Logger

	mu       sync.Mutex
	client   mqtt.Client
	stopped  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     *doneSignal
	slot     latest
}

// NewMQTT creates an MQTT head tracker. Nothing connects until Start.
func NewMQTT(cfg MQTTConfig, rightHanded bool, logger *slog.Logger) *MQTT {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConfig().MQTT.ConnectTimeout
	}
	return &MQTT{
		cfg:     cfg,
		decoder: decoder{rightHanded: rightHanded},
		logger:  logger.With("component", "headtracking.mqtt", "broker", cfg.Broker),
		stopCh:  make(chan struct{}),
		done:    newDoneSignal(),
	}
}

// Start connects to the broker and subscribes to the orientation topic.
// It blocks until subscribed, a failure, or Stop.
func (m *MQTT) Start() error {
	opts := mqtt.NewClientOptions().
		AddBroker(m.cfg.Broker).
		SetClientID(m.cfg.ClientID).
		SetConnectTimeout(m.cfg.ConnectTimeout).
		SetAutoReconnect(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			m.logger.Warn("head tracker connection lost", "error", err)
			m.done.close()
		})
	if m.cfg.Username != "" {
		opts.SetUsername(m.cfg.Username)
		opts.SetPassword(m.cfg.Password)
	}

	client := mqtt.NewClient(opts)

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return WrapError(m.Name(), ErrStopped)
	}
	m.client = client
	m.mu.Unlock()

	if err := m.await(client, client.Connect()); err != nil {
		return err
	}
	m.logger.Info("connected to MQTT broker")

	if err := m.await(client, client.Subscribe(m.cfg.Topic, m.cfg.QoS, m.onMessage)); err != nil {
		client.Disconnect(250)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		client.Disconnect(250)
		return WrapError(m.Name(), ErrStopped)
	}

	m.logger.Info("subscribed to head orientation", "topic", m.cfg.Topic)
	return nil
}

// await waits for token unless Stop comes first. An operation cut short by
// Stop still completes in paho, so the client is disconnected once it does.
func (m *MQTT) await(client mqtt.Client, token mqtt.Token) error {
	select {
	case <-token.Done():
	case <-m.stopCh:
		go func() {
			<-token.Done()
			client.Disconnect(250)
			m.logger.Debug("released client after stop")
		}()
		return WrapError(m.Name(), ErrStopped)
	}

	err := token.Error()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, packets.ErrorRefusedNotAuthorised),
		errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword):
		return WrapError(m.Name(), ErrPermissionDenied)
	default:
		return WrapError(m.Name(), &UnknownError{Description: err.Error()})
	}
}

func (m *MQTT) onMessage(_ mqtt.Client, msg mqtt.Message) {
	o, err := m.decoder.decode(msg.Payload())
	if err != nil {
		m.logger.Warn("dropping head orientation sample", "topic", msg.Topic(), "error", err)
		return
	}
	m.slot.put(o)
}

// Poll returns the newest sample received since the last Poll.
func (m *MQTT) Poll() (space.Orientation, bool) {
	return m.slot.take()
}

// Stop disconnects from the broker.
func (m *MQTT) Stop() error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		client := m.client
		m.mu.Unlock()

		close(m.stopCh)
		if client != nil && client.IsConnected() {
			client.Disconnect(250)
		}
		m.done.close()
		m.logger.Info("head tracker stopped")
	})
	return nil
}

// Done is closed on Stop or when the broker connection is lost.
func (m *MQTT) Done() <-chan struct{} {
	return m.done.ch
}

// Name returns "mqtt".
func (m *MQTT) Name() string {
	return "mqtt"
}
