package headtracking

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-soundscape/pkg/space"
)

// WebSocket is a head tracker reading JSON samples from a WebSocket feed.
type WebSocket struct {
	cfg     WebSocketConfig
	decoder decoder
	logger  *slog.Logger
	dialer  *websocket.Dialer

	mu       sync.Mutex
	conn     *websocket.Conn
	cancel   context.CancelFunc
	stopped  bool
	stopOnce sync.Once
	done     *doneSignal
	slot     latest
}

// NewWebSocket creates a WebSocket head tracker. Nothing dials until Start.
func NewWebSocket(cfg WebSocketConfig, rightHanded bool, logger *slog.Logger) *WebSocket {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultConfig().WebSocket.HandshakeTimeout
	}
	return &WebSocket{
		cfg:     cfg,
		decoder: decoder{rightHanded: rightHanded},
		logger:  logger.With("component", "headtracking.websocket", "url", cfg.URL),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		done: newDoneSignal(),
	}
}

// Start dials the feed. It blocks until connected, a failure, or Stop.
func (w *WebSocket) Start() error {
	ctx, cancel := context.WithCancel(context.Background())

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		cancel()
		return WrapError(w.Name(), ErrStopped)
	}
	w.cancel = cancel
	w.mu.Unlock()

	conn, resp, err := w.dialer.DialContext(ctx, w.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return w.classify(err, resp)
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		conn.Close()
		return WrapError(w.Name(), ErrStopped)
	}
	w.conn = conn
	w.mu.Unlock()

	w.logger.Info("connected to head orientation feed")
	go w.readLoop(conn)
	return nil
}

func (w *WebSocket) classify(err error, resp *http.Response) error {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()

	switch {
	case stopped || errors.Is(err, context.Canceled):
		return WrapError(w.Name(), ErrStopped)
	case resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden):
		return WrapError(w.Name(), ErrPermissionDenied)
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		return WrapError(w.Name(), ErrNotAvailable)
	default:
		return WrapError(w.Name(), &UnknownError{Description: err.Error()})
	}
}

func (w *WebSocket) readLoop(conn *websocket.Conn) {
	defer w.done.close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.logger.Warn("head orientation feed closed", "error", err)
			}
			return
		}

		o, err := w.decoder.decode(data)
		if err != nil {
			w.logger.Warn("dropping head orientation sample", "error", err)
			continue
		}
		w.slot.put(o)
	}
}

// Poll returns the newest sample received since the last Poll.
func (w *WebSocket) Poll() (space.Orientation, bool) {
	return w.slot.take()
}

// Stop closes the connection and aborts a pending dial.
func (w *WebSocket) Stop() error {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		if w.cancel != nil {
			w.cancel()
		}
		if w.conn != nil {
			w.conn.Close()
		}
		w.mu.Unlock()

		w.done.close()
		w.logger.Info("head tracker stopped")
	})
	return nil
}

// Done is closed on Stop or when the feed disconnects.
func (w *WebSocket) Done() <-chan struct{} {
	return w.done.ch
}

// Name returns "websocket".
func (w *WebSocket) Name() string {
	return "websocket"
}
