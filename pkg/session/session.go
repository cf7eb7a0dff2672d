// Package session synchronizes a head tracker with a media pipeline.
//
// A Session owns one sampling goroutine. The goroutine waits until the
// pipeline reports both that it is playing and that the initial scene was
// captured, then starts the head tracker and polls it at a fixed interval.
// Samples are handed to the owner through Samples; the goroutine never
// touches the soundscape directly.
//
//	Idle -> WaitingForStart -> Sampling -> Stopped
//	                       \-------------> Stopped (aborted or no tracker)
//
// Close may be called at any time, from any goroutine, any number of
// times. It never deadlocks: a tracker blocked in Start is stopped before
// the goroutine is joined.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/teslashibe/go-soundscape/pkg/headtracking"
	"github.com/teslashibe/go-soundscape/pkg/space"
	"github.com/teslashibe/go-soundscape/pkg/spatial"
)

// DefaultPollInterval is the head tracker sampling period.
const DefaultPollInterval = 100 * time.Millisecond

// Session is one synchronization run between a pipeline and a tracker.
type Session struct {
	id           string
	logger       *slog.Logger
	tracker      headtracking.HeadTracker
	pollInterval time.Duration

	gate  *StartGate
	ready *Readiness
	state atomic.Int32

	samples   chan space.Orientation
	initial   chan spatial.Scene
	quit      chan struct{}
	delivered atomic.Int64

	// guards the hand-off between the goroutine starting the tracker
	// and Close deciding whether it must stop it
	mu          sync.Mutex
	closing     bool
	trackerLive bool

	closeOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithPollInterval sets the sampling period.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a session and spawns its sampling goroutine. tracker may be
// nil, in which case head tracking is off and the listener keeps its
// initial orientation.
func New(tracker headtracking.HeadTracker, opts ...Option) *Session {
	s := &Session{
		id:           uuid.NewString(),
		logger:       slog.Default(),
		tracker:      tracker,
		pollInterval: DefaultPollInterval,
		gate:         NewStartGate(),
		samples:      make(chan space.Orientation, 1),
		initial:      make(chan spatial.Scene, 1),
		quit:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session", "session_id", s.id)
	s.ready = NewReadiness(s.gate)

	s.wg.Add(1)
	go s.run()

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the sampling goroutine state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Gate returns the state of the start gate.
func (s *Session) Gate() GateState {
	return s.gate.State()
}

// HeadTracking reports whether a tracker is attached.
func (s *Session) HeadTracking() bool {
	return s.tracker != nil
}

// Samples returns the orientation hand-off channel. Only the most recent
// undelivered sample is kept. The channel is closed when sampling ends.
func (s *Session) Samples() <-chan space.Orientation {
	return s.samples
}

// InitialScene delivers the captured initial scene once the gate opens.
// The channel is closed afterwards, or without a value if the session is
// closed before it started.
func (s *Session) InitialScene() <-chan spatial.Scene {
	return s.initial
}

// Delivered returns the number of samples handed to Samples.
func (s *Session) Delivered() int64 {
	return s.delivered.Load()
}

// PipelinePlaying reports that the media pipeline reached playing.
func (s *Session) PipelinePlaying() {
	s.logger.Debug("pipeline playing")
	s.ready.MarkPlaying()
}

// SceneCaptured reports the scene found at the renderer. Only the first
// capture counts.
func (s *Session) SceneCaptured(scene spatial.Scene) {
	if s.ready.MarkSceneCaptured(scene) {
		s.logger.Debug("initial scene captured", "sources", scene.Len())
	}
}

// Close aborts a pending start, stops the tracker and waits for the
// sampling goroutine to exit.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.gate.Abort() {
			s.logger.Info("session closed before start")
		}
		close(s.quit)

		s.mu.Lock()
		s.closing = true
		live := s.trackerLive
		s.mu.Unlock()

		if live {
			s.stopTracker()
		}
		s.wg.Wait()
	})
	return nil
}

func (s *Session) run() {
	defer s.wg.Done()
	defer close(s.samples)
	defer s.setState(StateStopped)

	ctx, span := tracer.Start(context.Background(), "head tracking session",
		trace.WithAttributes(attribute.String("session.id", s.id)),
	)
	defer span.End()

	s.setState(StateWaitingForStart)
	if s.gate.Wait() == GateAborted {
		close(s.initial)
		span.AddEvent("aborted before start")
		return
	}

	scene, _ := s.ready.Scene()
	s.initial <- scene
	close(s.initial)

	if s.tracker == nil {
		s.logger.Info("head tracking is off")
		span.AddEvent("head tracking off")
		return
	}
	span.SetAttributes(attribute.String("tracker.name", s.tracker.Name()))

	if !s.startTracker(ctx) {
		return
	}

	s.setState(StateSampling)
	s.logger.Info("head tracking is on", "tracker", s.tracker.Name(), "poll_interval", s.pollInterval)
	s.sample()
	span.SetAttributes(attribute.Int64("session.samples", s.delivered.Load()))
}

// startTracker starts the tracker unless Close got there first.
func (s *Session) startTracker(ctx context.Context) bool {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return false
	}
	s.trackerLive = true
	s.mu.Unlock()

	_, span := tracer.Start(ctx, "start head tracker")
	defer span.End()

	err := s.tracker.Start()
	if err == nil {
		return true
	}

	if errors.Is(err, headtracking.ErrStopped) {
		s.logger.Debug("head tracker start interrupted")
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("head tracker failed to start",
			"tracker", s.tracker.Name(),
			"kind", headtracking.Kind(err),
			"error", err,
		)
	}
	s.stopTracker()
	return false
}

func (s *Session) sample() {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-s.tracker.Done():
			s.logger.Warn("head tracker disconnected", "tracker", s.tracker.Name())
			s.stopTracker()
			return
		case <-ticker.C:
			if o, ok := s.tracker.Poll(); ok {
				s.deliver(o)
			}
		}
	}
}

// deliver replaces any unread sample with o.
func (s *Session) deliver(o space.Orientation) {
	for {
		select {
		case s.samples <- o:
			s.delivered.Add(1)
			return
		default:
		}
		select {
		case <-s.samples:
		default:
		}
	}
}

func (s *Session) stopTracker() {
	s.stopOnce.Do(func() {
		if err := s.tracker.Stop(); err != nil {
			s.logger.Warn("head tracker stop failed", "error", err)
		}
	})
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}
