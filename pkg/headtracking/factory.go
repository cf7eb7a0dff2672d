package headtracking

import (
	"fmt"
	"log/slog"
)

// New creates a head tracker with the given configuration.
// It returns ErrNotAvailable when head tracking is disabled or no feed is
// configured, in which case the listener keeps its initial orientation.
func New(cfg Config, logger *slog.Logger) (HeadTracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Resolve()

	logger.Info("creating head tracker",
		"backend", backend,
		"right_handed", cfg.RightHanded,
	)

	switch backend {
	case BackendMock:
		return NewMock(logger, WithSynthetic()), nil
	case BackendMQTT:
		return NewMQTT(cfg.MQTT, cfg.RightHanded, logger), nil
	case BackendWebSocket:
		return NewWebSocket(cfg.WebSocket, cfg.RightHanded, logger), nil
	case BackendNone:
		return nil, ErrNotAvailable
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// AvailableBackends returns the list of selectable backends.
func AvailableBackends() []Backend {
	return []Backend{BackendMQTT, BackendWebSocket, BackendMock}
}
